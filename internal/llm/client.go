package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/lumenfin/CouncilGo/internal/config"
)

// Completer is the opaque text-completion capability consumed by the
// analysts. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// ChatCompleter adapts an eino chat model to the Completer contract.
type ChatCompleter struct {
	model model.BaseChatModel
}

// NewChatCompleter wraps an already-constructed eino model.
func NewChatCompleter(m model.BaseChatModel) *ChatCompleter {
	return &ChatCompleter{model: m}
}

// NewCompleter builds the provider selected by the configuration.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "deepseek":
		cm, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:    cfg.DeepSeekAPIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create deepseek model: %w", err)
		}
		return NewChatCompleter(cm), nil
	case "openai", "":
		maxTokens := cfg.MaxTokens
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BackendURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return NewChatCompleter(cm), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

func (c *ChatCompleter) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	msg, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("empty completion from model")
	}
	return msg.Content, nil
}
