package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cupshup/ops-backend/internal/ocr"
	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/logger"
)

func newInvokeCmd(logFor func() *logger.Logger) *cobra.Command {
	cfg := config.OCRConfig{
		FunctionBaseURL: os.Getenv("CUPSHUP_OCR_FUNCTION_BASE_URL"),
		FunctionName:    "extract-order-id",
		APIKey:          os.Getenv("CUPSHUP_OCR_FUNCTION_API_KEY"),
	}
	cmd := &cobra.Command{
		Use:     "invoke <image-url>",
		Short:   "Call the deployed OCR function for a public image URL",
		Example: `  ocrctl invoke --base-url https://fn.example.com https://storage.googleapis.com/order_images/abc.png`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logg := logFor()
			ctx := logg.WithFields(cmd.Context(), map[string]any{
				"function_url": cfg.FunctionURL(),
				"image_url":    args[0],
			})
			client, err := ocr.NewClient(cfg, nil)
			if err != nil {
				return err
			}
			logg.Debug(ctx, "ocr.invoke")
			res, err := client.InvokeOCR(ctx, args[0])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&cfg.FunctionBaseURL, "base-url", cfg.FunctionBaseURL, "functions base URL")
	cmd.Flags().StringVar(&cfg.FunctionName, "function", cfg.FunctionName, "function name appended to the base URL")
	cmd.Flags().StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "bearer key sent to the function")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 60*time.Second, "request timeout")
	return cmd
}
