package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/ocr"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of cert-organizer",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cert-organizer %s (engines: %s)\n", version, strings.Join(ocr.Engines(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
