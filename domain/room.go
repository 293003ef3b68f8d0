package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// RoomCode is the short human-shareable token identifying a chat room.
type RoomCode string

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// NewRoomCode draws a uniform random 6-character code over the 36-symbol alphabet.
// Uniqueness is the caller's concern (see repositories.RoomRepository).
func NewRoomCode() RoomCode {
	b := make([]byte, codeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return RoomCode(b)
}

// NormalizeRoomCode upper-cases user input so lookups are case-insensitive.
func NormalizeRoomCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}

// Room is immutable once created and has no lifecycle end: rooms and their
// message logs are retained indefinitely.
type Room struct {
	Code      RoomCode
	CreatedBy string
	CreatedAt time.Time
}
