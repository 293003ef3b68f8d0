package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"babelroom/domain"
	"babelroom/errors"
)

func Test_Create_And_Get_Room(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewRoomRepository(db, 5)

	created, err := repository.CreateRoom("owner-1")
	req.NoError(err)
	req.Len(string(created.Code), 6)
	req.Equal("owner-1", created.CreatedBy)

	fetched, err := repository.GetRoom(created.Code)
	req.NoError(err)
	req.Equal(created.Code, fetched.Code)
	req.Equal(created.CreatedBy, fetched.CreatedBy)
}

func Test_Get_Unknown_Room_Returns_Not_Found(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewRoomRepository(db, 5)

	_, err := repository.GetRoom("NOROOM")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func Test_Code_Collision_Triggers_Regeneration(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	// Deterministic generator: first draw always collides with the room
	// created below, second draw is fresh.
	draws := []domain.RoomCode{"SAME01", "SAME01", "FRESH1"}
	i := 0
	repository := NewRoomRepository(db, 5).WithCodeGenerator(func() domain.RoomCode {
		code := draws[i]
		i++
		return code
	})

	first, err := repository.CreateRoom("owner-1")
	req.NoError(err)
	req.Equal(domain.RoomCode("SAME01"), first.Code)

	second, err := repository.CreateRoom("owner-2")
	req.NoError(err)
	req.Equal(domain.RoomCode("FRESH1"), second.Code)
}

func Test_Code_Exhaustion_Fails_With_Explicit_Error(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)

	repository := NewRoomRepository(db, 3).WithCodeGenerator(func() domain.RoomCode {
		return "STUCK1"
	})

	_, err := repository.CreateRoom("owner-1")
	req.NoError(err)

	_, err = repository.CreateRoom("owner-2")
	req.ErrorIs(err, errors.ErrRoomCreationExhausted)
}
