//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"babelroom/domain"
	"babelroom/errors"
)

type IRoomRepository interface {
	CreateRoom(ownerID string) (domain.Room, error)
	GetRoom(code domain.RoomCode) (domain.Room, error)
}

// CodeGenerator produces candidate room codes. Injectable so collision
// handling can be exercised in tests.
type CodeGenerator func() domain.RoomCode

type RoomRepository struct {
	db          *badger.DB
	maxAttempts int
	generate    CodeGenerator
}

func NewRoomRepository(db *badger.DB, maxAttempts int) *RoomRepository {
	return &RoomRepository{db: db, maxAttempts: maxAttempts, generate: domain.NewRoomCode}
}

// WithCodeGenerator overrides the random draw. Test seam only.
func (r *RoomRepository) WithCodeGenerator(gen CodeGenerator) *RoomRepository {
	r.generate = gen
	return r
}

type diskRoom struct {
	Code      domain.RoomCode `json:"code"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// CreateRoom generates a code, verifies it is unused and persists the room,
// all inside one transaction. On collision it regenerates, up to maxAttempts,
// then fails with ErrRoomCreationExhausted.
func (r *RoomRepository) CreateRoom(ownerID string) (domain.Room, error) {
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		room := domain.Room{
			Code:      r.generate(),
			CreatedBy: ownerID,
			CreatedAt: time.Now().UTC(),
		}

		data, err := json.Marshal(fromRoom(room))
		if err != nil {
			return domain.Room{}, fmt.Errorf("marshal failed: %w", err)
		}

		err = r.db.Update(func(txn *badger.Txn) error {
			key := roomKey(room.Code)
			if _, err := txn.Get(key); err == nil {
				return errors.ErrRoomCreationExhausted // collision, retry outside the txn
			} else if !goerrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set(key, data)
		})
		switch {
		case err == nil:
			return room, nil
		case goerrors.Is(err, errors.ErrRoomCreationExhausted):
			continue
		default:
			return domain.Room{}, err
		}
	}
	return domain.Room{}, fmt.Errorf("%w after %d attempts", errors.ErrRoomCreationExhausted, r.maxAttempts)
}

// GetRoom looks up a room by exact, case-normalized code.
// A miss is a user-visible ErrRoomNotFound, not a system fault.
func (r *RoomRepository) GetRoom(code domain.RoomCode) (domain.Room, error) {
	var disk diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(code))
		if err != nil {
			if goerrors.Is(err, badger.ErrKeyNotFound) {
				return errors.ErrRoomNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(disk), nil
}

func roomKey(code domain.RoomCode) []byte {
	return []byte("room:" + string(code))
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{Code: room.Code, CreatedBy: room.CreatedBy, CreatedAt: room.CreatedAt}
}

func toRoom(disk diskRoom) domain.Room {
	return domain.Room{Code: disk.Code, CreatedBy: disk.CreatedBy, CreatedAt: disk.CreatedAt}
}
