package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab-in/niftybias/internal/contracts"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest bias and recent history",
	Long: `Prints the latest daily bias row and a short history table.

Example:
  go run ./cmd/niftybias status
  go run ./cmd/niftybias status --days 10`,
	RunE: runStatus,
}

var (
	statusDays int
)

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().IntVar(&statusDays, "days", 7, "history days to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== niftybias Status ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	latest, err := a.repo.ReadLatest(ctx)
	if err != nil {
		if errors.Is(err, contracts.ErrNoRows) {
			fmt.Println("\nNo bias data yet. Run: go run ./cmd/niftybias daily")
			return nil
		}
		return fmt.Errorf("read latest: %w", err)
	}

	fmt.Printf("\nLatest (%s)\n", latest.Date())
	fmt.Printf("  Score:         %+d\n", latest.Bias.Score)
	fmt.Printf("  Label:         %s\n", latest.Bias.Label)
	fmt.Printf("  Guidance:      %s\n", latest.Bias.Guidance)
	fmt.Printf("  Data complete: %v\n", latest.DataComplete)
	fmt.Printf("  Fetched at:    %s\n", latest.FetchTimestamp.Format("2006-01-02 15:04:05"))

	history, err := a.repo.ReadHistory(ctx, statusDays)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	fmt.Printf("\nHistory (last %d rows)\n", len(history))
	fmt.Printf("  %-12s %6s  %-15s %s\n", "Date", "Score", "Label", "Complete")
	for _, row := range history {
		fmt.Printf("  %-12s %+6d  %-15s %v\n", row.Date(), row.Bias.Score, row.Bias.Label, row.DataComplete)
	}

	return nil
}
