// Package observability aggregates runtime counters for logs and the stats endpoint.
package observability

import (
	"sync/atomic"
	"time"
)

// Stats is the snapshot served by the stats endpoint.
type Stats struct {
	MessagesStored       uint64 `json:"messages_stored"`
	TranslationsDone     uint64 `json:"translations_done"`
	TranslationFallbacks uint64 `json:"translation_fallbacks"`
	TranslationCacheHits uint64 `json:"translation_cache_hits"`
	ActiveSessions       int64  `json:"active_sessions"`
	EventsDropped        uint64 `json:"events_dropped"`
	UptimeSeconds        int64  `json:"uptime_seconds"`
}

// Metrics holds atomic counters shared across workers and delivery sessions.
type Metrics struct {
	startedAt            time.Time
	messagesStored       atomic.Uint64
	translationsDone     atomic.Uint64
	translationFallbacks atomic.Uint64
	translationCacheHits atomic.Uint64
	activeSessions       atomic.Int64
	eventsDropped        atomic.Uint64
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now().UTC()}
}

func (m *Metrics) IncrMessagesStored()       { m.messagesStored.Add(1) }
func (m *Metrics) IncrTranslationsDone()     { m.translationsDone.Add(1) }
func (m *Metrics) IncrTranslationFallbacks() { m.translationFallbacks.Add(1) }
func (m *Metrics) IncrTranslationCacheHits() { m.translationCacheHits.Add(1) }
func (m *Metrics) IncrEventsDropped()        { m.eventsDropped.Add(1) }
func (m *Metrics) SessionOpened()            { m.activeSessions.Add(1) }
func (m *Metrics) SessionClosed()            { m.activeSessions.Add(-1) }

func (m *Metrics) Snapshot() Stats {
	return Stats{
		MessagesStored:       m.messagesStored.Load(),
		TranslationsDone:     m.translationsDone.Load(),
		TranslationFallbacks: m.translationFallbacks.Load(),
		TranslationCacheHits: m.translationCacheHits.Load(),
		ActiveSessions:       m.activeSessions.Load(),
		EventsDropped:        m.eventsDropped.Load(),
		UptimeSeconds:        int64(time.Since(m.startedAt).Seconds()),
	}
}
