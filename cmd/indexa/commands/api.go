package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantbr/indexa/internal/api"
	"github.com/quantbr/indexa/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Inicia o servidor da API administrativa",
	Long: `Inicia o servidor HTTP de administração dos índices.

Endpoints:
  GET  /health                          - Health check
  GET  /api/indexes                     - Lista os índices
  GET  /api/indexes/{ticker}/status     - Situação operacional do índice
  POST /api/indexes/{ticker}/recreate   - Recria o índice do zero
  POST /api/indexes/{ticker}/restore    - Restaura a carteira do último snapshot
  GET  /api/jobs                        - Lista os jobs agendados
  POST /api/jobs/{name}/run             - Executa um job imediatamente

Example:
  go run ./cmd/indexa api
  go run ./cmd/indexa api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "porta do servidor HTTP")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	log := a.logger

	indexHandler := handlers.NewIndexHandler(a.indexes, a.recreator, a.snapshots, a.status, log)
	jobHandler := handlers.NewJobHandler(a.scheduler, log)

	router := api.NewRouter(indexHandler, jobHandler, log)
	server := api.New(a.cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
