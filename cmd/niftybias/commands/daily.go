package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// dailyCmd represents the daily command
var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily bias pipeline once",
	Long: `Runs one fetch-compute-store cycle for a single trading date.

This command:
- Fetches all configured sources (with retries)
- Derives the signal features against the rolling history
- Computes and classifies the bias score
- Persists the daily row (idempotent per date)

Example:
  go run ./cmd/niftybias daily
  go run ./cmd/niftybias daily --date 2026-08-21`,
	RunE: runDaily,
}

var (
	dailyDate string
)

func init() {
	rootCmd.AddCommand(dailyCmd)

	// Flags
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "target date (YYYY-MM-DD, default today)")
}

func runDaily(cmd *cobra.Command, args []string) error {
	fmt.Println("=== niftybias Daily Run ===")

	target := time.Now()
	if dailyDate != "" {
		parsed, err := time.Parse("2006-01-02", dailyDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q (expected YYYY-MM-DD): %w", dailyDate, err)
		}
		target = parsed
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	row, err := a.runner.RunDaily(ctx, target)
	if err != nil {
		return fmt.Errorf("daily run: %w", err)
	}

	if row == nil {
		fmt.Printf("\nRun skipped for %s (weekend or already processed)\n", target.Format("2006-01-02"))
		return nil
	}

	fmt.Printf("\nDate:          %s\n", row.Date())
	fmt.Printf("Score:         %+d\n", row.Bias.Score)
	fmt.Printf("Label:         %s\n", row.Bias.Label)
	fmt.Printf("Guidance:      %s\n", row.Bias.Guidance)
	fmt.Printf("Data complete: %v\n", row.DataComplete)

	return nil
}
