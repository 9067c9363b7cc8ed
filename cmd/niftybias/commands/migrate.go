package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantlab-in/niftybias/internal/store"
	"github.com/quantlab-in/niftybias/pkg/config"
	"github.com/quantlab-in/niftybias/pkg/database"
	"github.com/quantlab-in/niftybias/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Applies all pending schema migrations.

Migrations are versioned and recorded in schema_migrations; already
applied versions are skipped, so running this repeatedly is safe.

Example:
  go run ./cmd/niftybias migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== niftybias Migrations ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := store.Migrate(ctx, db.Pool, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Println("\nMigrations applied")
	return nil
}
