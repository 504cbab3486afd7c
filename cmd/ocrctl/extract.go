package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cupshup/ops-backend/internal/evidence"
	"github.com/cupshup/ops-backend/internal/orderid"
)

func newExtractCmd() *cobra.Command {
	var showPattern bool
	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract the order id from text given as an argument or on stdin",
		Example: `  ocrctl extract "Order: ABC123"
  cat receipt.txt | ocrctl extract`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if showPattern {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), orderid.Pattern())
				return err
			}
			text, err := readText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), &evidence.OCRResult{
				DetectedText: text,
				OrderID:      orderid.Extract(text),
			})
		},
	}
	cmd.Flags().BoolVar(&showPattern, "pattern", false, "print the matching expression and exit")
	return cmd
}

func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no text given; pass it as an argument or pipe it on stdin")
		}
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(raw), "\n"), nil
}
