package main

import (
	"github.com/spf13/cobra"

	"stockledger/pkg/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "stockreport",
	Short: "Stock movement balance reports from the ledger database",
	Long: `stockreport builds the stock in/out balance report for a period and
exports it as xlsx or pdf.

Database settings come from the environment (DATABASE_URL or DB_*),
optionally from a .env file in the working directory.

Example Usage:
  stockreport export --from 2024-03-01 --to 2024-03-31 --out march.xlsx
  stockreport export --from 2024-03-01 --to 2024-03-31 --type summary --format pdf`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// newLogger builds the CLI logger: quiet unless --verbose.
func newLogger() (*logger.Logger, error) {
	if !verbose {
		return logger.NewNop(), nil
	}
	return logger.New(logger.Config{
		Level:       "debug",
		Development: true,
		OutputPaths: []string{"stderr"},
	})
}
