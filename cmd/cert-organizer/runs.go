package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs from the run store",
	Args:  cobra.NoArgs,
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().String("store", "", "run store: postgres:// DSN or SQLite file path")
	runsCmd.Flags().Int("limit", 20, "number of runs to show")
	runsCmd.Flags().Bool("check", false, "only check that the store is reachable")

	rootCmd.AddCommand(runsCmd)
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.DSN == "" {
		return common.NewAppError(common.CodeConfig, "no run store configured (set store.dsn or --store)", common.ErrInvalidInput)
	}
	logger := consoleLogger(cfg)
	limit, _ := cmd.Flags().GetInt("limit")
	check, _ := cmd.Flags().GetBool("check")

	ctx := cmd.Context()
	st, err := store.Open(ctx, store.Config{DSN: cfg.Store.DSN}, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if check {
		if err := st.HealthCheck(ctx, 5*time.Second); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "store OK")
		return nil
	}

	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return common.NewAppError(common.CodeStore, "list runs", err)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tFILES\tOK\tFAILED\tCOMPLETE\tRENAMED\tELAPSED\tFOLDER")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Status, r.Total, r.Succeeded, r.Failed,
			r.Complete, r.Renamed, r.Elapsed().Round(time.Second), r.InputDir)
	}
	return tw.Flush()
}
