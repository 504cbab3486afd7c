package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/ocr"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const defaultCredentialsEnv = "CUPSHUP_VISION_CREDENTIALS"

func newDetectCmd(logFor func() *logger.Logger) *cobra.Command {
	var (
		credentialsFile string
		maxImageMB      int
	)
	cmd := &cobra.Command{
		Use:   "detect <file-or-url>",
		Short: "Run Vision text detection in-process on a local file or image URL",
		Long: `Runs the same detection the OCR function does, using service-account
credentials held locally. Credentials come from --credentials or the
` + defaultCredentialsEnv + ` variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logg := logFor()
			ctx := logg.WithField(cmd.Context(), "source", args[0])

			raw, err := loadCredentials(credentialsFile)
			if err != nil {
				return err
			}
			if _, err := ocr.ParseCredentials(raw); err != nil {
				return err
			}
			detector, err := ocr.NewVisionDetector(ctx, []byte(raw))
			if err != nil {
				return err
			}
			defer detector.Close()

			invoker := &ocr.LocalInvoker{
				Fetcher:  ocr.NewFetcher(nil, int64(maxImageMB)<<20),
				Detector: detector,
			}

			var res *evidence.OCRResult
			if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
				res, err = invoker.InvokeOCR(ctx, args[0])
			} else {
				var image []byte
				image, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read image: %w", err)
				}
				res, err = invoker.Detect(ctx, image)
			}
			if err != nil {
				return err
			}
			logg.Debug(logg.WithField(ctx, "order_id_found", res.OrderID != nil), "ocr.detect")
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&credentialsFile, "credentials", "", "path to a service-account JSON key")
	cmd.Flags().IntVar(&maxImageMB, "max-image-mb", 20, "download limit for URL sources")
	return cmd
}

func loadCredentials(path string) (string, error) {
	if path == "" {
		return os.Getenv(defaultCredentialsEnv), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	return string(raw), nil
}
