package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/config"
	"github.com/lumenfin/CouncilGo/internal/display"
	"github.com/lumenfin/CouncilGo/internal/models"
	"github.com/lumenfin/CouncilGo/internal/sinks"
)

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		date       string
		horizon    string
		mktContext string
		debate     bool
		report     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run one council analysis for a ticker",
		Long: `Run the full pipeline for one ticker: collect proposals, debate if
the bench disagrees, fuse a decision and emit the signal file.
Example: councilgo analyze NVDA --date 2026-03-14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(args[0], date, horizon, mktContext)
			if err != nil {
				return err
			}
			return runAnalysis(cmd.Context(), cfg, req, debate, report)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "analysis date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&horizon, "horizon", "1d", "trade horizon")
	cmd.Flags().StringVar(&mktContext, "context", "", "free-form market context for the bench")
	cmd.Flags().BoolVar(&debate, "show-debate", false, "print the full round-by-round debate")
	cmd.Flags().BoolVar(&report, "report", false, "also write a markdown report next to the signal")
	return cmd
}

func buildRequest(symbol, date, horizon, marketContext string) (*models.Request, error) {
	if date == "" {
		return models.NewRequest(symbol, horizon, marketContext), nil
	}
	asOf, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("bad --date %q, want YYYY-MM-DD", date)
	}
	return models.NewRequestAt(symbol, horizon, marketContext, asOf), nil
}

func runAnalysis(ctx context.Context, cfg *config.Config, req *models.Request, showDebate, writeReport bool) error {
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	decision, err := a.orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Println(display.RenderDecision(decision))
	if showDebate {
		fmt.Println()
		fmt.Println(display.RenderDebate(decision.Debate))
	}
	if writeReport {
		path, err := sinks.WriteDecisionReport(cfg.SignalsDir, decision)
		if err != nil {
			return err
		}
		fmt.Printf("report written: %s\n", path)
	}
	logger.Info("analysis finished",
		zap.String("symbol", req.Symbol),
		zap.String("recommendation", decision.Recommendation))
	return nil
}

// runInteractive prompts for requests in a loop until the user is
// done. Config file edits made while the session is open are picked up
// for the next analysis.
func runInteractive(ctx context.Context, mgr *config.Manager, cfg *config.Config) error {
	var mu sync.Mutex
	current := *cfg
	if mgr != nil {
		debugFlag := cfg.Debug
		err := mgr.Watch(ctx, func(c config.Config) {
			c.ApplyEnv()
			c.Debug = c.Debug || debugFlag
			mu.Lock()
			current = c
			mu.Unlock()
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "config watch unavailable: %v\n", err)
		}
	}

	for {
		symbol, err := promptTicker()
		if err != nil {
			return err
		}
		asOf, err := promptDate()
		if err != nil {
			return err
		}
		horizon, err := promptHorizon()
		if err != nil {
			return err
		}
		showDebate, err := promptConfirm("Show the full debate transcript when done?")
		if err != nil {
			return err
		}

		mu.Lock()
		run := current
		mu.Unlock()

		req := models.NewRequestAt(symbol, horizon, "", asOf)
		if err := runAnalysis(ctx, &run, req, showDebate, false); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", req.Symbol, err)
		}

		again, err := promptConfirm("Analyze another ticker?")
		if err != nil || !again {
			return err
		}
	}
}
