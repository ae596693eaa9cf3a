// Package insight generates conversational insights (replies, summaries,
// sentiment, keywords) from message history via an LLM provider.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/wavelength-ai/chat-insights/internal/apperr"
	"github.com/wavelength-ai/chat-insights/internal/llm"
	"github.com/wavelength-ai/chat-insights/internal/model"
	"github.com/wavelength-ai/chat-insights/pkg/logger"
	"github.com/wavelength-ai/chat-insights/pkg/metrics"
)

// Generator produces insights from an ordered message list. Callers
// guarantee the input is non-empty.
type Generator interface {
	// Reply continues the conversation as the assistant.
	Reply(ctx context.Context, messages []model.Message) (string, error)

	// Summarize returns a concise summary of the conversation.
	Summarize(ctx context.Context, messages []model.Message) (string, error)

	// Analyze returns the overall sentiment and key topics. Parsing the
	// model output is best-effort: unrecognizable responses degrade to
	// neutral sentiment and no keywords rather than failing.
	Analyze(ctx context.Context, messages []model.Message) (sentiment string, keywords []string, err error)
}

// Options configures the LLM-backed generator.
type Options struct {
	// Model overrides the provider default.
	Model string

	// Timeout bounds each generation call, retries included.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
}

// LLMGenerator implements Generator over an llm.Client with a per-call
// timeout and bounded exponential-backoff retry. External LLM calls are the
// dominant latency and failure source, so a single attempt is not enough,
// but unbounded retry would hang requests.
type LLMGenerator struct {
	client llm.Client
	opts   Options
	logger *logger.Logger
}

// NewLLMGenerator creates an LLM-backed generator.
func NewLLMGenerator(client llm.Client, opts Options, log *logger.Logger) *LLMGenerator {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &LLMGenerator{client: client, opts: opts, logger: log}
}

// Reply continues the conversation as a helpful assistant.
func (g *LLMGenerator) Reply(ctx context.Context, messages []model.Message) (string, error) {
	prompt := "Please respond to this conversation as a helpful AI assistant:\n\n" + transcript(messages)
	return g.complete(ctx, "reply", prompt)
}

// Summarize returns a concise summary of the conversation.
func (g *LLMGenerator) Summarize(ctx context.Context, messages []model.Message) (string, error) {
	prompt := "Please provide a concise summary of the following conversation:\n\n" + transcript(messages)
	return g.complete(ctx, "summarize", prompt)
}

// Analyze asks for sentiment and keywords in one call and parses the
// free-text response.
func (g *LLMGenerator) Analyze(ctx context.Context, messages []model.Message) (string, []string, error) {
	prompt := "Analyze the following conversation and provide:\n" +
		"1. Overall sentiment (positive, negative, or neutral)\n" +
		"2. Key topics or keywords (comma-separated)\n\n" +
		transcript(messages)

	text, err := g.complete(ctx, "analyze", prompt)
	if err != nil {
		return "", nil, err
	}

	sentiment, keywords := parseInsights(text)
	return sentiment, keywords, nil
}

func (g *LLMGenerator) complete(ctx context.Context, operation, prompt string) (string, error) {
	if g.client == nil {
		return "", apperr.Generator("insight generator is not configured", nil)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.opts.MaxRetries)),
		ctx,
	)

	var content string
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
			Model:    g.opts.Model,
			Messages: []llm.ChatMessage{{Role: "user", Content: prompt}},
		})
		if err != nil {
			g.logger.Warn("llm call failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		if resp.Content == "" {
			return errors.New("empty completion")
		}
		content = resp.Content
		return nil
	}, policy)

	if err != nil {
		metrics.RecordLLMRequest(operation, "error", time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return "", apperr.GeneratorTimeout(fmt.Sprintf("%s generation timed out", operation), err)
		}
		return "", apperr.Generator(fmt.Sprintf("%s generation failed", operation), err)
	}

	metrics.RecordLLMRequest(operation, "success", time.Since(start).Seconds())
	return content, nil
}

// transcript renders messages as "user_id: body" lines, oldest first.
func transcript(messages []model.Message) string {
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = fmt.Sprintf("%s: %s", msg.UserID, msg.Body)
	}
	return strings.Join(lines, "\n")
}
