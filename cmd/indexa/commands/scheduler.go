package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inicia o agendador de jobs em lote",
	Long: `Inicia o daemon que executa os jobs nos horários da B3.

Jobs:
  mark-to-market  - marcação a mercado diária (22:30, seg-sex)
  screening       - screening e rebalanceamento (08:00, segunda)

Example:
  go run ./cmd/indexa scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	a.scheduler.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	a.scheduler.Stop(ctx)

	return nil
}
