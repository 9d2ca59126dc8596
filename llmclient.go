package triviaquiz

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Completer is the model provider boundary: one prompt in, text out.
// Errors wrap ErrProviderQuota, ErrProviderConnectivity or ErrProviderGeneric.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// OpenAIClient implements Completer with a chat completion request
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient creates a client for the configured OpenAI compatible endpoint
func NewOpenAIClient(cfg *Config, logger *zap.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4Turbo
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		timeout: cfg.RequestTimeout,
		logger:  orNop(logger),
	}
}

// Complete sends prompt as a system message and returns the trimmed reply
func (c *OpenAIClient) Complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: prompt,
				},
			},
			Temperature: temperature,
		},
	)
	if err != nil {
		classified := classifyProviderError(err)
		c.logger.Warn("Chat completion failed", zap.String("model", c.model), zap.Error(classified))
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrProviderGeneric)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty response", ErrProviderGeneric)
	}

	c.logger.Debug("Chat completion received",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return content, nil
}

// classifyProviderError maps a go-openai or transport error onto the
// provider error kinds.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || isQuotaCode(apiErr.Type) || isQuotaCode(fmt.Sprint(apiErr.Code)) {
			return fmt.Errorf("%w: %s", ErrProviderQuota, apiErr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", ErrProviderGeneric, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrProviderQuota, reqErr.Err)
		}
		return fmt.Errorf("%w: status %d: %v", ErrProviderGeneric, reqErr.HTTPStatusCode, reqErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderConnectivity, err)
	}

	return fmt.Errorf("%w: %v", ErrProviderGeneric, err)
}

func isQuotaCode(code string) bool {
	return code == "insufficient_quota" || code == "rate_limit_exceeded"
}

// invokeModel takes a rate limit slot, calls the model and records metrics
// under purpose ("question" or "explanation").
func invokeModel(ctx context.Context, llm Completer, limiter *RateLimiter, purpose, prompt string, temperature float32) (string, error) {
	if limiter != nil {
		if err := limiter.TryAcquire(); err != nil {
			llmRequestsTotal.WithLabelValues(purpose, errorKind(err)).Inc()
			return "", err
		}
	}

	start := time.Now()
	text, err := llm.Complete(ctx, prompt, temperature)
	llmRequestDuration.WithLabelValues(purpose).Observe(time.Since(start).Seconds())
	llmRequestsTotal.WithLabelValues(purpose, errorKind(err)).Inc()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
