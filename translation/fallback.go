package translation

import (
	"context"
	"log/slog"

	"babelroom/domain"
	"babelroom/observability"
)

// Fallback wraps a Translator and converts every failure into the original
// text. Translation is never fatal: the chat must not block or error out
// because a provider call failed, so degraded delivery means the viewer sees
// untranslated content.
type Fallback struct {
	next    Translator
	log     *slog.Logger
	metrics *observability.Metrics
}

func NewFallback(next Translator, log *slog.Logger, metrics *observability.Metrics) *Fallback {
	return &Fallback{next: next, log: log, metrics: metrics}
}

func (f *Fallback) Translate(ctx context.Context, text string, target domain.LocaleCode) (string, error) {
	translated, err := f.next.Translate(ctx, text, target)
	if err != nil {
		f.metrics.IncrTranslationFallbacks()
		f.log.Warn("translation degraded, falling back to original text",
			"target", target, "error", err)
		return text, nil
	}
	f.metrics.IncrTranslationsDone()
	return translated, nil
}
