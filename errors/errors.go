package errors

import "fmt"

var (
	ErrWorkerPanic           = fmt.Errorf("worker panic")
	ErrRoomNotFound          = fmt.Errorf("room not found")
	ErrRoomCreationExhausted = fmt.Errorf("room code generation exhausted")
	ErrUnsupportedLanguage   = fmt.Errorf("unsupported target language")
	ErrEmptyMessage          = fmt.Errorf("message content is empty")
	ErrUserAlreadyExists     = fmt.Errorf("user already exists")
	ErrInvalidCredentials    = fmt.Errorf("invalid credentials")
	ErrInvalidPassword       = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration       = fmt.Errorf("token generation failed")
	ErrNotInRoom             = fmt.Errorf("viewer is not in a room")
)
