// Package search maintains a full-text index of stored messages and answers
// per-room queries.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"

	"babelroom/domain"
)

type ISearcher interface {
	Add(message domain.Message) error
	Search(ctx context.Context, room domain.RoomCode, terms string, limit int) ([]Hit, error)
}

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// Hit is one matching message, newest relevance first.
type Hit struct {
	MessageID string
	Author    string
	Content   string
}

// Add indexes a stored message. Messages are immutable, so Update acts as a
// plain insert keyed by message ID.
func (i *Index) Add(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField("content", message.Content).StoreValue()).
		AddField(bluge.NewKeywordField("room", string(message.Room))).
		AddField(bluge.NewKeywordField("author", message.Sender).StoreValue()).
		AddField(bluge.NewDateTimeField("at", message.CreatedAt))
	return i.writer.Update(doc.ID(), doc)
}

// Search matches terms against message content, restricted to one room.
func (i *Index) Search(ctx context.Context, room domain.RoomCode, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("index reader failed: %w", err)
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("content")).
		AddMust(bluge.NewTermQuery(string(room)).SetField("room"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "author":
				hit.Author = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
