package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/agents"
	"github.com/lumenfin/CouncilGo/internal/config"
	"github.com/lumenfin/CouncilGo/internal/council"
	"github.com/lumenfin/CouncilGo/internal/dataflows"
	"github.com/lumenfin/CouncilGo/internal/llm"
	"github.com/lumenfin/CouncilGo/internal/sinks"
	"github.com/lumenfin/CouncilGo/internal/storage/sqlite"
)

// app is the fully wired pipeline behind every CLI command.
type app struct {
	cfg          *config.Config
	orchestrator *council.Orchestrator
	history      *sqlite.Store
	logger       *zap.Logger
}

func newLogger(debug bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if debug {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.DisableStacktrace = true
	return zapCfg.Build()
}

// buildApp assembles the council from configuration: LLM completer,
// analyst bench with data tools, debate engine, fusion, sinks and the
// decision history store.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	completer, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	yahoo := dataflows.NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled)
	finnhub := dataflows.NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled)
	scraper := dataflows.NewArticleScraper(cfg.DataCacheDir, cfg.CacheEnabled)
	csv := dataflows.NewCSVStore(cfg.DataDir)
	toolset := dataflows.NewToolset(yahoo, finnhub, scraper, csv, cfg.OnlineTools, 30)

	weights := council.StaticWeights{}
	var bench []agents.Analyst
	for _, profile := range agents.DefaultProfiles() {
		bench = append(bench, agents.NewLLMAnalyst(profile, completer, toolset.ForProfile(profile.Name), logger))
		weights[profile.Name] = profile.Weight
	}

	backoff := time.Duration(cfg.RetryBackoffMS) * time.Millisecond
	timeout := time.Duration(cfg.AnalystTimeoutSec) * time.Second
	collector := council.NewCollector(bench, cfg.AnalystAttempts, backoff, timeout, logger)

	var moderator agents.Moderator
	if cfg.UseModerator {
		// The moderator is a single optional call per round, so it gets
		// its own retry wrapper instead of collector-level attempts.
		moderated := llm.NewRetryingCompleter(completer, cfg.AnalystAttempts, backoff, timeout)
		moderator = agents.NewLLMModerator(moderated, logger)
	}
	engine := council.NewEngine(bench, moderator, cfg.MaxDebateRounds, logger)

	orchestrator := council.NewOrchestrator(
		collector,
		engine,
		council.NewFuser(weights),
		sinks.NewFileSignalSink(cfg.SignalsDir, logger),
		sinks.NewFileTrajectorySink(cfg.TrajectoriesDir, logger),
		logger,
	)

	history, err := sqlite.Open(cfg.HistoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	orchestrator.SetRecorder(history)

	return &app{
		cfg:          cfg,
		orchestrator: orchestrator,
		history:      history,
		logger:       logger,
	}, nil
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
