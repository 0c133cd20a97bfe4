// Package pipeline runs best-effort text transformations on content before
// it is stored. A failing hook never fails the write; the original text is
// kept instead.
package pipeline

import (
	"context"
	"log/slog"

	"notebin/internal/domain/services"
	"notebin/internal/metrics"
)

// Pipeline routes content to at most one hook: script content goes to the
// obfuscator, everything else to the filter. A nil hook means pass-through.
type Pipeline struct {
	classifier *Classifier
	obfuscator services.ContentHook
	filter     services.ContentHook
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

var _ services.ContentPipeline = (*Pipeline)(nil)

// NewPipeline creates a pipeline. obfuscator, filter and m may be nil.
func NewPipeline(
	classifier *Classifier,
	obfuscator services.ContentHook,
	filter services.ContentHook,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		obfuscator: obfuscator,
		filter:     filter,
		metrics:    m,
		logger:     logger,
	}
}

// Run implements services.ContentPipeline
func (p *Pipeline) Run(ctx context.Context, text string) string {
	hook := p.filter
	if p.classifier != nil && p.classifier.IsScript(text) {
		hook = p.obfuscator
	}
	if hook == nil {
		return text
	}

	out, err := hook.Transform(ctx, text)
	if err != nil {
		p.logger.Warn("content hook failed, keeping original text",
			"hook", hook.Name(),
			"error", err,
		)
		p.count(hook.Name(), "fallback")
		return text
	}

	p.logger.Debug("content hook applied", "hook", hook.Name(), "in_bytes", len(text), "out_bytes", len(out))
	p.count(hook.Name(), "applied")
	return out
}

func (p *Pipeline) count(hook, outcome string) {
	if p.metrics != nil {
		p.metrics.HookOutcomes.WithLabelValues(hook, outcome).Inc()
	}
}
