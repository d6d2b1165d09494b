package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/taskpad/provider"
)

const systemPrompt = `You are a task management expert. Break the task you are given into a short list of concrete, actionable subtasks.
Respond with JSON only, in exactly this shape: {"subtasks": ["first step", "second step"]}.
Do not add commentary.`

// Options configures a ProviderGenerator.
type Options struct {
	// Timeout bounds a single generation. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// ProviderGenerator asks a chat model for subtasks.
type ProviderGenerator struct {
	provider provider.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewProviderGenerator returns a Generator backed by p.
func NewProviderGenerator(p provider.Provider, opts Options) *ProviderGenerator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderGenerator{
		provider: p,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Generate makes a single provider call. Any failure is wrapped with
// ErrGeneration.
func (g *ProviderGenerator) Generate(ctx context.Context, taskDescription string) ([]string, error) {
	requestID := uuid.NewString()
	logger := g.logger.With(
		slog.String("request_id", requestID),
		slog.String("provider", g.provider.Name()),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Chat(ctx, []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: taskDescription},
	})
	if err != nil {
		logger.Error("subtask generation failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	subtasks, err := ParseSubtasks(resp.Content)
	if err != nil {
		logger.Error("subtask generation returned unusable output",
			slog.Any("err", err),
			slog.Int("bytes", len(resp.Content)),
		)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	logger.Debug("subtasks generated",
		slog.Int("count", len(subtasks)),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return subtasks, nil
}
