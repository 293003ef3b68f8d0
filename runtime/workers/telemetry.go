package workers

import (
	"context"
	"log/slog"

	"babelroom/domain/event"
	"babelroom/observability"
)

// TelemetryWorker drains the best-effort telemetry channel and keeps the
// global counters current. Losing telemetry events is acceptable; losing
// domain events is not, which is why this sits on a separate channel.
type TelemetryWorker struct {
	log       *slog.Logger
	telemetry chan event.DomainEvent
	metrics   *observability.Metrics
}

func NewTelemetryWorker(log *slog.Logger, telemetry chan event.DomainEvent,
	metrics *observability.Metrics) *TelemetryWorker {
	return &TelemetryWorker{log: log, telemetry: telemetry, metrics: metrics}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return nil
		case evt, ok := <-w.telemetry:
			if !ok {
				return nil
			}
			if _, isStored := evt.(event.MessageStored); isStored {
				w.metrics.IncrMessagesStored()
			}
		}
	}
}
