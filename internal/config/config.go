package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every tunable of a council run. Values come from
// defaults, then the JSON config file managed by Manager, then a .env
// file and process environment, then command-line flags.
type Config struct {
	ProjectDir      string `json:"project_dir"`
	SignalsDir      string `json:"signals_dir"`
	TrajectoriesDir string `json:"trajectories_dir"`
	DataDir         string `json:"data_dir"`
	DataCacheDir    string `json:"data_cache_dir"`
	HistoryDBPath   string `json:"history_db_path"`

	LLMProvider    string `json:"llm_provider"`
	Model          string `json:"model"`
	BackendURL     string `json:"backend_url"`
	MaxTokens      int    `json:"max_tokens"`
	OpenAIAPIKey   string `json:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	FinnhubAPIKey  string `json:"finnhub_api_key"`

	MaxDebateRounds   int  `json:"max_debate_rounds"`
	AnalystAttempts   int  `json:"analyst_attempts"`
	RetryBackoffMS    int  `json:"retry_backoff_ms"`
	AnalystTimeoutSec int  `json:"analyst_timeout_sec"`
	UseModerator      bool `json:"use_moderator"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`
}

// DefaultConfig builds a configuration rooted at the working directory
// with env overrides applied.
func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()
	cfg := DefaultConfigWithRoot(currentDir)
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv layers a .env file and the process environment over the
// config.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()
	c.loadFromEnv()
}

// DefaultConfigWithRoot builds the pure defaults under root, without
// touching the environment. The config manager uses it when seeding a
// fresh config file.
func DefaultConfigWithRoot(root string) *Config {
	return &Config{
		ProjectDir:      root,
		SignalsDir:      filepath.Join(root, "signals"),
		TrajectoriesDir: filepath.Join(root, "trajectories"),
		DataDir:         filepath.Join(root, "data"),
		DataCacheDir:    filepath.Join(root, "data", "cache"),
		HistoryDBPath:   filepath.Join(root, "data", "history.db"),

		LLMProvider: "deepseek",
		Model:       "deepseek-chat",
		BackendURL:  "",
		MaxTokens:   2048,

		MaxDebateRounds:   2,
		AnalystAttempts:   2,
		RetryBackoffMS:    500,
		AnalystTimeoutSec: 120,
		UseModerator:      false,

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("SIGNALS_DIR"); val != "" {
		c.SignalsDir = val
	}
	if val := os.Getenv("TRAJECTORIES_DIR"); val != "" {
		c.TrajectoriesDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("COUNCILGO_FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}

	if val := os.Getenv("MAX_DEBATE_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxDebateRounds = v
		}
	}
	if val := os.Getenv("ANALYST_ATTEMPTS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.AnalystAttempts = v
		}
	}
	if val := os.Getenv("ANALYST_TIMEOUT_SEC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.AnalystTimeoutSec = v
		}
	}
	if val := os.Getenv("USE_MODERATOR"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.UseModerator = enabled
		}
	}

	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("COUNCILGO_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxDebateRounds < 0 {
		return fmt.Errorf("max_debate_rounds must be >= 0, got %d", c.MaxDebateRounds)
	}
	if c.AnalystAttempts < 1 {
		return fmt.Errorf("analyst_attempts must be >= 1, got %d", c.AnalystAttempts)
	}
	if c.RetryBackoffMS < 0 {
		return fmt.Errorf("retry_backoff_ms must be >= 0, got %d", c.RetryBackoffMS)
	}
	switch strings.ToLower(c.LLMProvider) {
	case "", "openai", "deepseek":
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	return nil
}

// EnsureDirectories creates every directory a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.SignalsDir, c.TrajectoriesDir, c.DataDir, c.DataCacheDir}
	if c.HistoryDBPath != "" {
		dirs = append(dirs, filepath.Dir(c.HistoryDBPath))
	}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
