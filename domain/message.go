// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event. The ID and CreatedAt are
// assigned by the store at append time; store order is authoritative.
type Message struct {
	ID        uuid.UUID
	Room      RoomCode
	Sender    string
	Content   string
	CreatedAt time.Time
}
