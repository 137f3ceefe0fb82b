package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Executa jobs em lote manualmente",
}

var jobRunCmd = &cobra.Command{
	Use:   "run [name]",
	Short: "Executa um job imediatamente",
	Long: `Executa um job em lote fora do horário agendado.

Jobs disponíveis:
  mark-to-market  - marcação a mercado de todos os índices
  screening       - screening e rebalanceamento de todos os índices

Example:
  go run ./cmd/indexa job run mark-to-market`,
	Args: cobra.ExactArgs(1),
	RunE: runJob,
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobRunCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	fmt.Printf("Running job %s...\n", name)

	if err := a.scheduler.RunNow(context.Background(), name); err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}

	fmt.Println("Done.")
	return nil
}
