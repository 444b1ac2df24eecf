// Package cli wires the council behind a cobra command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenfin/CouncilGo/internal/config"
)

const version = "1.0.0"

// loadConfig resolves the run configuration: the managed file first,
// then .env and process environment on top. When the config dir is
// unusable the CLI still runs on working-directory defaults, just
// without persistence.
func loadConfig() (*config.Manager, *config.Config) {
	mgr, err := config.NewManager("", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config unavailable (%v), using defaults\n", err)
		return nil, config.DefaultConfig()
	}
	return mgr, mgr.Effective()
}

// NewRootCmd builds the command tree. With no subcommand the CLI runs
// an interactive session.
func NewRootCmd() *cobra.Command {
	mgr, cfg := loadConfig()

	rootCmd := &cobra.Command{
		Use:   "councilgo",
		Short: "CouncilGo - multi-analyst trading signals",
		Long: `CouncilGo runs a bench of specialized LLM analysts against a ticker,
lets them debate disagreements, and fuses their convictions into a
single deterministic trading signal.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), mgr, cfg)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newBatchCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newDataCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(mgr))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("CouncilGo v%s\n", version)
		},
	}
}
