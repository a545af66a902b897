package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// systemRole primes the model before every detector prompt.
const systemRole = "You are a professional financial analyst specializing in " +
	"detecting short-sale signals in corporate disclosures. Answer strictly " +
	"in the JSON format the prompt specifies."

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	// BaseURL points at an OpenAI-compatible endpoint. Empty uses the
	// official API; Gemini's compatibility surface also works here.
	BaseURL string

	// APIKeys are rotated round-robin across calls.
	APIKeys []string

	// RequestsPerMinute caps the client-side call rate. Zero disables
	// the limiter.
	RequestsPerMinute int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// OpenAI is a Backend on an OpenAI-compatible chat completion API.
//
// One client is held per API key; Generate picks the next key in rotation
// and waits on the shared rate limiter before each call. Safe for
// concurrent use.
type OpenAI struct {
	clients []*openai.Client
	ring    *KeyRing
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOpenAI builds the backend from config.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	ring, err := NewKeyRing(cfg.APIKeys)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clients := make([]*openai.Client, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		clientCfg := openai.DefaultConfig(key)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		clients = append(clients, openai.NewClientWithConfig(clientCfg))
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}

	logger.Info("initializing analysis backend",
		"base_url", cfg.BaseURL, "keys", ring.Len(),
		"requests_per_minute", cfg.RequestsPerMinute)
	return &OpenAI{
		clients: clients,
		ring:    ring,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Generate implements Backend.
func (o *OpenAI) Generate(ctx context.Context, prompt, model string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	client := o.clients[o.ring.NextIndex()]

	o.logger.Debug("calling analysis backend", "model", model, "prompt_len", len(prompt))
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &TransientError{Err: errors.New("backend returned no choices")}
	}
	o.logger.Debug("backend response received",
		"model", model, "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}

// classify maps provider errors onto the two-way taxonomy the core
// understands. Rate limiting and upstream outages are transient; bad
// requests and auth failures are permanent.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500 {
			return &TransientError{Err: err}
		}
		return &PermanentError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Err: err}
	}

	// Connection-level failures without a classification lean transient:
	// the next attempt may hit a healthy replica.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &TransientError{Err: err}
	}

	return &PermanentError{Err: fmt.Errorf("unclassified backend failure: %w", err)}
}
