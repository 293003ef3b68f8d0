// Package delivery runs the per-viewer pipeline: it subscribes to a room's
// stored-message events, translates what the viewer has not seen yet into
// their preferred language, and publishes enriched batches to the transport.
package delivery

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"

	"babelroom/domain"
	"babelroom/domain/event"
	"babelroom/errors"
	"babelroom/observability"
	"babelroom/translation"
)

type State int32

const (
	StateIdle State = iota
	StateInRoom
)

// Enriched is the per-viewer projection of a message. TranslatedText is
// derived and never persisted: it equals the original text for the viewer's
// own messages and whenever translation degrades.
type Enriched struct {
	ID             uuid.UUID `json:"id"`
	Sender         string    `json:"sender"`
	Text           string    `json:"text"`
	TranslatedText string    `json:"translatedText"`
	At             time.Time `json:"at"`
}

// Batch is a set of newly enriched messages in non-decreasing timestamp order.
type Batch []Enriched

// Session is one viewer's live subscription to one room. It implements
// contract.EventSink for the fan-out worker and contract.Worker for its own
// processing loop. A session is single-use: leaving the room cancels its
// context and a rejoin builds a fresh one, which is what discards any
// in-flight translation targeting the defunct subscription.
type Session struct {
	ID         string
	log        *slog.Logger
	viewer     domain.User
	room       domain.RoomCode
	translator translation.Translator
	metrics    *observability.Metrics

	inbound chan event.DomainEvent
	out     chan Batch
	backlog []domain.Message

	// seen/cache are only touched from the Run goroutine.
	seen  map[uuid.UUID]struct{}
	cache map[uuid.UUID]string

	state atomic.Int32
	done  atomic.Bool
}

func NewSession(log *slog.Logger, viewer domain.User, room domain.RoomCode,
	translator translation.Translator, metrics *observability.Metrics,
	bufferSize int) *Session {
	return &Session{
		ID:         uuid.NewString(),
		log:        log,
		viewer:     viewer,
		room:       room,
		translator: translator,
		metrics:    metrics,
		inbound:    make(chan event.DomainEvent, bufferSize),
		out:        make(chan Batch, bufferSize),
		seen:       make(map[uuid.UUID]struct{}),
		cache:      make(map[uuid.UUID]string),
	}
}

// Bootstrap seeds the history snapshot delivered as the first batch.
// Must be called before Run.
func (s *Session) Bootstrap(messages []domain.Message) {
	s.backlog = messages
}

// Events is the stream the transport renders. It is closed when the session ends.
func (s *Session) Events() <-chan Batch {
	return s.out
}

func (s *Session) Room() domain.RoomCode {
	return s.room
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Consume implements the event sink contract. Called by the fan-out worker;
// the worker's per-sink timeout bounds how long a full buffer can stall it.
// Events arriving before Run starts are buffered; events arriving after the
// session ended are rejected.
func (s *Session) Consume(ctx context.Context, e event.DomainEvent) error {
	if s.done.Load() {
		return errors.ErrNotInRoom
	}
	select {
	case s.inbound <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes the bootstrap snapshot, then live events, until ctx is
// canceled. Each drained batch is translated with one concurrent fan-out and
// joined before publishing, so latency is bounded by the slowest single
// translation, and a slow older message can never render after a faster
// newer one.
func (s *Session) Run(ctx context.Context) error {
	s.metrics.SessionOpened()
	s.state.Store(int32(StateInRoom))
	defer func() {
		s.done.Store(true)
		s.state.Store(int32(StateIdle))
		s.metrics.SessionClosed()
		close(s.out)
	}()

	if len(s.backlog) > 0 {
		if !s.publish(ctx, s.enrich(ctx, s.backlog)) {
			return nil
		}
		s.backlog = nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-s.inbound:
			messages := s.drain(e)
			if len(messages) == 0 {
				continue
			}
			if !s.publish(ctx, s.enrich(ctx, messages)) {
				return nil
			}
		}
	}
}

// drain collects the received event plus anything already queued, so a burst
// is translated as one batch instead of one call per message.
func (s *Session) drain(first event.DomainEvent) []domain.Message {
	var messages []domain.Message
	if stored, ok := first.(event.MessageStored); ok {
		messages = append(messages, stored.Message())
	}
	for {
		select {
		case e := <-s.inbound:
			if stored, ok := e.(event.MessageStored); ok {
				messages = append(messages, stored.Message())
			}
		default:
			return messages
		}
	}
}

// enrich filters already-seen messages, then computes the viewer projection:
// own messages pass through untouched (never a provider call), messages
// already in the target language are detected and skipped, and the remainder
// is translated concurrently. A message ID is translated at most once per
// session; redelivered events are suppressed and counted as cache hits.
func (s *Session) enrich(ctx context.Context, messages []domain.Message) Batch {
	target := s.viewer.PreferredLanguage

	var batch Batch
	var pending []int // indices in batch awaiting a provider call
	for _, msg := range messages {
		if _, dup := s.seen[msg.ID]; dup {
			if _, hit := s.cache[msg.ID]; hit {
				s.metrics.IncrTranslationCacheHits()
			}
			continue
		}
		s.seen[msg.ID] = struct{}{}

		enriched := Enriched{
			ID:     msg.ID,
			Sender: msg.Sender,
			Text:   msg.Content,
			At:     msg.CreatedAt,
		}

		switch {
		case msg.Sender == s.viewer.Email:
			enriched.TranslatedText = msg.Content
		case detectedLocale(msg.Content) == target:
			// Already in the viewer's language, nothing to translate.
			enriched.TranslatedText = msg.Content
			s.cache[msg.ID] = msg.Content
		default:
			pending = append(pending, len(batch))
		}
		batch = append(batch, enriched)
	}

	var wg sync.WaitGroup
	for _, idx := range pending {
		wg.Add(1)
		go func(e *Enriched) {
			defer wg.Done()
			translated, err := s.translator.Translate(ctx, e.Text, target)
			if err != nil {
				// Fallback decorator already absorbs provider failures;
				// anything left is a programming error on our side.
				s.log.Error("translate failed", "message_id", e.ID, "error", err)
				translated = e.Text
			}
			e.TranslatedText = translated
		}(&batch[idx])
	}
	wg.Wait()

	for _, idx := range pending {
		s.cache[batch[idx].ID] = batch[idx].TranslatedText
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].At.Before(batch[j].At)
	})
	return batch
}

// publish pushes the batch unless the room was left meanwhile. A false
// return means the session is defunct and late results must be discarded.
func (s *Session) publish(ctx context.Context, batch Batch) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case s.out <- batch:
		return true
	case <-ctx.Done():
		return false
	}
}

// detectedLocale reports the language of text, or "" when the detector is
// not confident. Short messages rarely carry enough signal, so they fall
// through to the provider instead of being skipped on a guess.
func detectedLocale(text string) domain.LocaleCode {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return domain.LocaleCode(info.Lang.Iso6391())
}
