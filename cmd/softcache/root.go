package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "softcache",
	Short: "softcache benchmarks a software-managed two-tier cache.",
	Long: `softcache benchmarks a software-managed two-tier cache. It fills ` +
		`a backing store, repeatedly fetches randomly selected lines into a ` +
		`resident set, and reports the achieved data movement bandwidth.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	// A .env file can pre-set ClickHouse credentials. Missing files are
	// fine.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
