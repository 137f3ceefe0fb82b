package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "indexa",
	Short: "Indexa - motor de índices sintéticos da B3",
	Long: `Indexa Unified CLI

Motor de cálculo de índices teóricos baseados em regras:
screening do universo, rebalanceamento e marcação a mercado diária.

Usage:
  go run ./cmd/indexa [command]

Examples:
  go run ./cmd/indexa api
  go run ./cmd/indexa scheduler
  go run ./cmd/indexa job run mark-to-market
  go run ./cmd/indexa status
  go run ./cmd/indexa migrate up`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
