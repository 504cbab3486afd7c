package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/ocr"
	"github.com/cupshup/ops-backend/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ocrctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "ocrctl",
		Short:         "Inspect order-id extraction against receipts and the OCR function",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")

	logFor := func() *logger.Logger {
		if !verbose {
			return logger.Nop()
		}
		return logger.New(logger.Options{ServiceName: "ocrctl", Level: logger.ParseLevel("debug"), Output: os.Stderr})
	}

	root.AddCommand(
		newExtractCmd(),
		newInvokeCmd(logFor),
		newDetectCmd(logFor),
	)
	return root
}

// writeResult prints the function's success body so every subcommand reports
// the same shape.
func writeResult(w io.Writer, res *evidence.OCRResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ocr.Response{Success: true, OrderID: res.OrderID, DetectedText: res.DetectedText})
}
