// Package runtime handles event production, propagation and supervision.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"babelroom/contract"
	"babelroom/domain"
	"babelroom/domain/event"
	"babelroom/errors"
	"babelroom/observability"
	"babelroom/repositories"
	"babelroom/runtime/workers"
)

type IOrchestrator interface {
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (uuid.UUID, error)
	GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error)
	RegisterParticipant(pID string, room domain.RoomCode, sink contract.EventSink)
	UnregisterParticipant(pID string, room domain.RoomCode)
	Start(ctx context.Context) error
	Stop()
}

type Orchestrator struct {
	log               *slog.Logger
	supervisor        contract.ISupervisor
	registry          contract.IRegistry
	messageRepository repositories.IMessageRepository
	permanentSinks    []contract.EventSink
	metrics           *observability.Metrics
	domainEvents      chan event.DomainEvent
	telemetryEvents   chan event.DomainEvent
	sinkTimeout       time.Duration
	healthInterval    time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, messageRepository repositories.IMessageRepository,
	metrics *observability.Metrics,
	bufferSize int, sinkTimeout, healthInterval time.Duration) *Orchestrator {
	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		registry:          registry,
		messageRepository: messageRepository,
		metrics:           metrics,
		domainEvents:      make(chan event.DomainEvent, bufferSize),
		telemetryEvents:   make(chan event.DomainEvent, bufferSize),
		sinkTimeout:       sinkTimeout,
		healthInterval:    healthInterval,
	}
}

// Add registers permanent sinks that receive every stored event regardless of
// room membership (search indexer, timelines). Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// PostMessage is the append operation. The store assigns the identity and the
// authoritative timestamp, persists first, then publishes the stored event to
// the fan-out pipeline. Persisting synchronously means an I/O failure reaches
// the sender ("failed to send") instead of vanishing into a queue.
func (o *Orchestrator) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (uuid.UUID, error) {
	if strings.TrimSpace(cmd.Content) == "" {
		return uuid.Nil, errors.ErrEmptyMessage
	}

	stored := event.MessageStored{
		ID:      uuid.New(),
		Room:    cmd.Room,
		Sender:  cmd.Sender,
		Content: cmd.Content,
		At:      time.Now().UTC(),
	}

	if err := o.messageRepository.StoreMessage(repositories.FromDomain(stored.Message())); err != nil {
		return uuid.Nil, fmt.Errorf("append failed: %w", err)
	}

	select {
	case o.domainEvents <- stored:
	case <-ctx.Done():
		// Persisted but not fanned out within the caller's deadline. The
		// message is durable; subscribers will see it on their next backfill.
		o.metrics.IncrEventsDropped()
		o.log.Warn("Stored message not fanned out, caller gone",
			"room", cmd.Room, "message_id", stored.ID)
	}
	return stored.ID, nil
}

func (o *Orchestrator) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	messages, cursor, err := o.messageRepository.GetMessages(cmd.Room, cmd.Cursor)
	return fromDiskMessages(messages), cursor, err
}

func fromDiskMessages(messages []repositories.DiskMessage) []domain.Message {
	return lo.Map(messages, func(item repositories.DiskMessage, _ int) domain.Message {
		return repositories.ToDomain(item)
	})
}

func (o *Orchestrator) RegisterParticipant(pID string, room domain.RoomCode, sink contract.EventSink) {
	o.registry.Subscribe(pID, room, sink)
}

// UnregisterParticipant disconnects a viewer. The scoped-acquisition rule:
// every Subscribe must be matched by exactly one Unsubscribe on every exit path.
func (o *Orchestrator) UnregisterParticipant(pID string, room domain.RoomCode) {
	o.registry.Unsubscribe(pID, room)
}

// Start registers the pipeline workers with the supervisor and launches them.
func (o *Orchestrator) Start(ctx context.Context) error {
	fanout := workers.NewEventFanout(o.log, o.registry, o.permanentSinks,
		o.domainEvents, o.telemetryEvents, o.sinkTimeout)
	telemetry := workers.NewTelemetryWorker(o.log, o.telemetryEvents, o.metrics)
	health := workers.NewHealthWorker(o.log, o.metrics, o.healthInterval)

	o.supervisor.Add(fanout, telemetry, health)

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop initiates a graceful shutdown: cancels the supervised context and
// waits for the workers to drain.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
