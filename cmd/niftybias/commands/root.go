package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "niftybias",
	Short: "NIFTY institutional bias pipeline",
	Long: `niftybias - daily institutional bias scoring for NIFTY 50

Fetches FII/DII flows, derivatives positioning, volatility and global
risk indicators after each trading day, derives the signal features and
persists one classified bias row per date.

Usage:
  go run ./cmd/niftybias [command]

Examples:
  go run ./cmd/niftybias migrate
  go run ./cmd/niftybias daily
  go run ./cmd/niftybias scheduler start
  go run ./cmd/niftybias api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
