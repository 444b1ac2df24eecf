package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenfin/CouncilGo/internal/config"
)

// The config commands operate on the same manager the runs are built
// from, so a `config set` is visible to the next analyze.
func newConfigCmd(mgr *config.Manager) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the persisted configuration",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if mgr == nil {
				return fmt.Errorf("config file is unavailable")
			}
			return nil
		},
	}
	configCmd.AddCommand(newConfigShowCmd(mgr))
	configCmd.AddCommand(newConfigSetCmd(mgr))
	configCmd.AddCommand(newConfigPathCmd(mgr))
	return configCmd
}

func newConfigShowCmd(mgr *config.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		RunE: func(*cobra.Command, []string) error {
			out, err := json.MarshalIndent(redacted(*mgr.Effective()), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func newConfigSetCmd(mgr *config.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "set JSON",
		Short: "Merge a JSON fragment into the persisted configuration",
		Long: `Merge updates into the config file, e.g.
  councilgo config set '{"max_debate_rounds": 3, "use_moderator": true}'
Invalid updates are rejected and the previous configuration stays.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := mgr.UpdateFromJSON(args[0]); err != nil {
				return fmt.Errorf("update rejected: %w", err)
			}
			fmt.Printf("configuration updated: %s\n", mgr.Path())
			return nil
		},
	}
}

func newConfigPathCmd(mgr *config.Manager) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(*cobra.Command, []string) error {
			fmt.Println(mgr.Path())
			return nil
		},
	}
}

// redacted blanks secrets before printing.
func redacted(cfg config.Config) config.Config {
	if cfg.OpenAIAPIKey != "" {
		cfg.OpenAIAPIKey = "***"
	}
	if cfg.DeepSeekAPIKey != "" {
		cfg.DeepSeekAPIKey = "***"
	}
	if cfg.FinnhubAPIKey != "" {
		cfg.FinnhubAPIKey = "***"
	}
	return cfg
}
