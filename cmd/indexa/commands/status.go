package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Mostra a situação operacional de todos os índices",
	Long: `Lista cada índice com o último ponto calculado, dias pendentes,
proventos ainda não incorporados e o estado do último checkpoint de lote.

Example:
  go run ./cmd/indexa status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	defs, err := a.indexes.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tASSETS\tLAST POINT\tPOINTS\tPENDING\tDIVS\tSTATE")

	for i := range defs {
		st, err := a.status.Status(ctx, &defs[i])
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\terror: %v\n", defs[i].Ticker, err)
			continue
		}

		lastDate := "-"
		if st.LastPointDate != nil {
			lastDate = st.LastPointDate.Format("2006-01-02")
		}
		state := "pending"
		if st.UpToDate {
			state = "up to date"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%d\t%d\t%s\n",
			st.Ticker, st.Assets, lastDate, st.LastPoints, st.PendingDays, len(st.PendingDividends), state)
	}

	return w.Flush()
}
