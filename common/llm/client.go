package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"driftapp.dev/drift/common/retry"
)

// Client generates free-form text completions. Downstream parsing and
// validation of the output is the caller's responsibility.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerationResult, error)
	Model() string
}

type GenerationResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  *float64 // nil = model default, explicit 0 = deterministic
	MaxAttempts  int
	InitialDelay time.Duration
}

type client struct {
	openai      openai.Client
	model       string
	maxTokens   int
	temperature *float64
	policy      retry.Policy
}

func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	initialDelay := cfg.InitialDelay
	if initialDelay == 0 {
		initialDelay = time.Second
	}

	return &client{
		openai:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		policy: retry.Policy{
			MaxAttempts:  maxAttempts,
			InitialDelay: initialDelay,
			IsRetryable:  IsRetryable,
		},
	}, nil
}

func (c *client) Generate(ctx context.Context, systemPrompt, userPrompt string) (*GenerationResult, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (*GenerationResult, error) {
		return c.generateOnce(ctx, systemPrompt, userPrompt)
	})
}

func (c *client) generateOnce(ctx context.Context, systemPrompt, userPrompt string) (*GenerationResult, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens: openai.Int(int64(c.maxTokens)),
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}

	slog.DebugContext(ctx, "llm generation completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &GenerationResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *client) Model() string {
	return c.model
}

func Temp(t float64) *float64 {
	return &t
}

// IsRetryable classifies LLM call failures. Rate limits and server errors
// are transient; client errors and cancelled contexts are not.
func IsRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.DebugContext(ctx, "llm error not retryable: context cancelled or deadline exceeded")
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			slog.WarnContext(ctx, "llm rate limited, will retry",
				"status_code", apiErr.StatusCode)
			return true
		case apiErr.StatusCode >= 500:
			slog.WarnContext(ctx, "llm server error, will retry",
				"status_code", apiErr.StatusCode)
			return true
		default:
			slog.ErrorContext(ctx, "llm client error, not retryable",
				"status_code", apiErr.StatusCode,
				"error_type", apiErr.Type,
				"error_code", apiErr.Code)
			return false
		}
	}

	// Network errors (no API response) are generally retryable
	slog.WarnContext(ctx, "llm network error, will retry", "error", err)
	return true
}
