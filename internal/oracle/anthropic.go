package oracle

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/resilience"
	"github.com/wypadek/karta-cli/internal/schema"
	"github.com/wypadek/karta-cli/pkg/anthropic"
)

// Options tunes the Anthropic-backed oracle.
type Options struct {
	Model          string
	MaxTokens      int64
	RequestTimeout time.Duration
	RequestsPerMin int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		Model:          "claude-sonnet-4-5",
		MaxTokens:      4096,
		RequestTimeout: 60 * time.Second,
		RequestsPerMin: 30,
	}
}

// AnthropicOracle implements Oracle on top of the Anthropic messages API.
// Every call goes through a rate limiter, a bounded timeout, and one retry
// on transient failure.
type AnthropicOracle struct {
	client  anthropic.Client
	reg     *schema.Registry
	opts    Options
	limiter *rate.Limiter
	retry   resilience.RetryConfig

	system   []anthropic.SystemBlock
	finalize []anthropic.SystemBlock
}

// NewAnthropic builds an oracle for the given card schema. System prompts
// are rendered once and reused with a long cache TTL.
func NewAnthropic(client anthropic.Client, reg *schema.Registry, opts Options) *AnthropicOracle {
	if opts.Model == "" {
		opts = DefaultOptions()
	}
	rpm := opts.RequestsPerMin
	if rpm <= 0 {
		rpm = DefaultOptions().RequestsPerMin
	}
	return &AnthropicOracle{
		client:   client,
		reg:      reg,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		retry:    resilience.DefaultRetryConfig(),
		system:   anthropic.BuildCachedSystemBlocks(buildSystemPrompt(reg)),
		finalize: anthropic.BuildCachedSystemBlocks(buildFinalizePrompt(reg)),
	}
}

func (o *AnthropicOracle) Turn(ctx context.Context, history []model.ChatMessage) (*model.TurnExtraction, error) {
	raw, err := o.complete(ctx, o.system, history, "turn")
	if err != nil {
		return nil, err
	}
	out, err := parseTurn(raw, o.reg)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: turn reply rejected")
	}
	return out, nil
}

func (o *AnthropicOracle) Finalize(ctx context.Context, history []model.ChatMessage) (*model.AdjudicationInput, error) {
	raw, err := o.complete(ctx, o.finalize, history, "finalize")
	if err != nil {
		return nil, err
	}
	out, err := parseFinalize(raw, o.reg)
	if err != nil {
		return nil, eris.Wrap(err, "oracle: finalize reply rejected")
	}
	return out, nil
}

func (o *AnthropicOracle) complete(ctx context.Context, system []anthropic.SystemBlock, history []model.ChatMessage, phase string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "oracle: rate limiter")
	}

	req := anthropic.MessageRequest{
		Model:     o.opts.Model,
		MaxTokens: o.opts.MaxTokens,
		System:    system,
		Messages:  toMessages(history),
	}

	resp, err := resilience.DoVal(ctx, o.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		callCtx, cancel := context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
		return o.client.CreateMessage(callCtx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "oracle: %s call failed", phase)
	}

	resp.Usage.LogUsage(o.opts.Model, phase)
	text := resp.Text()
	if text == "" {
		zap.L().Warn("oracle returned empty reply",
			zap.String("phase", phase),
			zap.String("stop_reason", resp.StopReason))
		return "", eris.Errorf("oracle: %s reply had no text content", phase)
	}
	return text, nil
}

func toMessages(history []model.ChatMessage) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role != "assistant" {
			role = "user"
		}
		out = append(out, anthropic.Message{Role: role, Content: m.Content})
	}
	return out
}
