package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"babelroom/contract"
	"babelroom/domain/event"
)

// EventFanout broadcasts stored-message events to in-process consumers:
// the per-viewer delivery sessions registered for the room, plus permanent
// sinks (search indexer, timeline).
//
// It provides best-effort fan-out with no durability or retries; it is not a
// message broker. Within one event the sinks are served concurrently and
// joined before the next event is taken, so each sink observes events in
// store order.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	domainEvents   chan event.DomainEvent
	telemetry      chan event.DomainEvent
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	permanentSinks []contract.EventSink,
	domainEvents, telemetry chan event.DomainEvent,
	sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		permanentSinks: permanentSinks,
		domainEvents:   domainEvents,
		telemetry:      telemetry,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.domainEvents:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.Fanout(ctx, evt)
			select {
			case w.telemetry <- evt:
			default:
				w.log.Debug("Observability telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping domainEvent send")
			return nil
		}
	}
}

// Fanout delivers one event to every sink, each under its own timeout.
// A slow or dead sink delays this event only, never the whole pipeline.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := append(w.registry.GetSinksForRoom(evt.RoomID()), w.permanentSinks...)

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := s.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Sink rejected event", "room", evt.RoomID(), "error", err)
			}
		}(sink)
	}
	wg.Wait()
}
