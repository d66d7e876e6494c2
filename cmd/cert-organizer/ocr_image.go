package main

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cert-organizer/internal/common"
	"github.com/joseph-ayodele/cert-organizer/internal/preprocess"
)

var ocrImageCmd = &cobra.Command{
	Use:   "ocr-image <image>",
	Short: "OCR a single scanned page image",
	Long: `OCR-image runs the configured OCR engine on one PNG or JPEG page. With
--save the preprocessed page is written out so the binarization and deskew
settings can be inspected.`,
	Args: cobra.ExactArgs(1),
	RunE: ocrImage,
}

func init() {
	ocrImageCmd.Flags().String("save", "", "write the preprocessed image to this path (implies --preprocess)")

	rootCmd.AddCommand(ocrImageCmd)
}

func ocrImage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := consoleLogger(cfg)
	save, _ := cmd.Flags().GetString("save")

	img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
	if err != nil {
		return common.NewAppError(common.CodeInput, "open image", err)
	}
	ex, err := newOCR(cfg, logger)
	if err != nil {
		return err
	}

	pre := cfg.OCR.Preprocess
	if save != "" {
		p := preprocess.New(preprocessConfig(cfg.Preprocess), logger)
		img = p.Process(img)
		if angle, ok := p.EstimateSkew(img); ok {
			logger.Info("estimated skew", "degrees", fmt.Sprintf("%.2f", angle))
		}
		img = p.Deskew(img)
		if err := imaging.Save(img, save); err != nil {
			return common.NewAppError(common.CodeInput, "save preprocessed image", err)
		}
		logger.Info("preprocessed image saved", "path", save)
		pre = false
	}

	text, err := ex.ExtractImage(cmd.Context(), img, pre)
	if err != nil {
		return common.NewAppError(common.CodeExtract, "recognize image", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
