package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenfin/CouncilGo/internal/config"
	"github.com/lumenfin/CouncilGo/internal/display"
	"github.com/lumenfin/CouncilGo/internal/storage/sqlite"
)

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "Show stored decisions, optionally for one ticker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := sqlite.Open(cfg.HistoryDBPath)
			if err != nil {
				return fmt.Errorf("open history store: %w", err)
			}
			defer store.Close()

			var records []*sqlite.DecisionRecord
			if len(args) == 1 {
				records, err = store.BySymbol(cmd.Context(), args[0], limit)
			} else {
				records, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			fmt.Println(display.RenderHistory(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows to show")
	return cmd
}
