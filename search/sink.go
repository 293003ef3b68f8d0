package search

import (
	"context"
	"fmt"
	"log/slog"

	"babelroom/domain/event"
)

// IndexSink feeds every stored message into the full-text index.
// It rides the fan-out path as a permanent sink, like the delivery sessions.
type IndexSink struct {
	searcher ISearcher
	log      *slog.Logger
}

func NewIndexSink(searcher ISearcher, log *slog.Logger) IndexSink {
	return IndexSink{searcher: searcher, log: log}
}

func (s IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageStored:
		return s.searcher.Add(evt.Message())
	default:
		s.log.Debug(fmt.Sprintf("Not an indexable event : %v", evt))
		return nil
	}
}
