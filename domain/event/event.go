package event

import (
	"time"

	"github.com/google/uuid"

	"babelroom/domain"
)

type DomainEvent interface {
	RoomID() domain.RoomCode
}

// MessagePosted is the raw inbound intent, before the store assigned identity.
type MessagePosted struct {
	Room    domain.RoomCode
	Sender  string
	Content string
	At      time.Time
}

func (m MessagePosted) RoomID() domain.RoomCode {
	return m.Room
}

// MessageStored carries the authoritative record: store-assigned ID and
// timestamp. This is what subscribers receive and what viewers render.
type MessageStored struct {
	ID      uuid.UUID
	Room    domain.RoomCode
	Sender  string
	Content string
	At      time.Time
}

func (m MessageStored) RoomID() domain.RoomCode {
	return m.Room
}

func (m MessageStored) Message() domain.Message {
	return domain.Message{
		ID:        m.ID,
		Room:      m.Room,
		Sender:    m.Sender,
		Content:   m.Content,
		CreatedAt: m.At,
	}
}
