package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/domain"
	"github.com/MichaelrKraft/leadspot-ai-sub001/internal/metrics"
)

// Synthesizer generates answers via the OpenAI-compatible chat API.
type Synthesizer struct {
	client   *openai.Client
	model    string
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

// SynthesizerConfig holds the synthesis provider settings.
type SynthesizerConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewSynthesizer creates an OpenAI-compatible synthesis provider.
func NewSynthesizer(cfg *SynthesizerConfig) *Synthesizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Synthesizer{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Synthesizer.
func (s *Synthesizer) Complete(
	ctx context.Context, systemPrompt, userPrompt string, temperature float32, maxTokens int,
) (domain.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.Completion{}, parseAPIError("synthesis", err)
	}

	if len(resp.Choices) == 0 {
		metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "error").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrProviderUnavailable)
	}

	metrics.SynthesisRequestsTotal.WithLabelValues(s.provider, s.model, "success").Inc()
	metrics.SynthesisRequestDuration.WithLabelValues(s.provider, s.model).Observe(duration.Seconds())

	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.SynthesisTokensTotal.WithLabelValues(s.provider, s.model, "input").Add(float64(usage.PromptTokens))
		metrics.SynthesisTokensTotal.WithLabelValues(s.provider, s.model, "output").Add(float64(usage.CompletionTokens))
	}

	return domain.Completion{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (s *Synthesizer) HealthCheck(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
