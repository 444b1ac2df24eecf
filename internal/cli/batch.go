package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/config"
	"github.com/lumenfin/CouncilGo/internal/display"
	"github.com/lumenfin/CouncilGo/internal/models"
)

func newBatchCmd(cfg *config.Config) *cobra.Command {
	var (
		date    string
		horizon string
	)
	cmd := &cobra.Command{
		Use:   "batch SYMBOL [SYMBOL...]",
		Short: "Run council analyses for several tickers in sequence",
		Long: `Run the full pipeline once per ticker. Symbols run sequentially so
each run gets the whole bench; a failed run reports and the batch
continues.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg.Debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var asOf time.Time
			if date != "" {
				asOf, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("bad --date %q, want YYYY-MM-DD", date)
				}
			}

			failures := 0
			for _, symbol := range args {
				req := models.NewRequestAt(symbol, horizon, "", asOf)
				decision, err := a.orchestrator.Run(cmd.Context(), req)
				if err != nil {
					failures++
					logger.Error("batch run failed", zap.String("symbol", symbol), zap.Error(err))
					fmt.Printf("%s: failed: %v\n", req.Symbol, err)
					continue
				}
				fmt.Println(display.RenderDecision(decision))
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d runs failed", failures, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "analysis date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&horizon, "horizon", "1d", "trade horizon")
	return cmd
}
