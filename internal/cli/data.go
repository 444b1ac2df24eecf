package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenfin/CouncilGo/internal/config"
	"github.com/lumenfin/CouncilGo/internal/dataflows"
)

func newDataCmd(cfg *config.Config) *cobra.Command {
	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Manage the offline market data store",
	}
	dataCmd.AddCommand(newDataImportCmd(cfg))
	return dataCmd
}

// data import fills the CSV store from the online price source, so
// analyses can later run with online_tools disabled.
func newDataImportCmd(cfg *config.Config) *cobra.Command {
	var (
		days int
		date string
	)
	cmd := &cobra.Command{
		Use:   "import SYMBOL [SYMBOL...]",
		Short: "Download price history into the offline CSV store",
		Long: `Fetch trailing daily bars from the online source and save them under
the data directory. Example: councilgo data import NVDA AAPL --days 180`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			asOf := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("bad --date %q, want YYYY-MM-DD", date)
				}
				asOf = parsed
			}

			yahoo := dataflows.NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled)
			store := dataflows.NewCSVStore(cfg.DataDir)
			for _, symbol := range args {
				if err := dataflows.ValidateSymbol(symbol); err != nil {
					return err
				}
				bars, err := yahoo.Window(symbol, asOf, days)
				if err != nil {
					return fmt.Errorf("%s: %w", dataflows.NormalizeSymbol(symbol), err)
				}
				if err := store.SaveBars(symbol, bars); err != nil {
					return err
				}
				fmt.Printf("%s: saved %d bars\n", dataflows.NormalizeSymbol(symbol), len(bars))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 90, "trailing days of history to import")
	cmd.Flags().StringVar(&date, "date", "", "end date YYYY-MM-DD (default today)")
	return cmd
}
