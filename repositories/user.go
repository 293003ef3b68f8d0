//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"babelroom/domain"
	"babelroom/errors"
)

type IUserRepository interface {
	CreateUser(email, hashedPassword string, language domain.LocaleCode) (User, error)
	GetUserByEmail(email string) (User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is the repository-layer representation of an account, hash included.
// The domain User never carries the password hash.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password_hash"`
	Language     domain.LocaleCode `json:"language"`
	Roles        []string          `json:"roles"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (u User) ToDomain() domain.User {
	return domain.User{
		ID:                u.ID,
		Email:             u.Email,
		PreferredLanguage: u.Language,
		Roles:             u.Roles,
		CreatedAt:         u.CreatedAt,
	}
}

// CreateUser persists the user with their preferred language.
// The language is written once at signup and never updated afterwards.
func (u UserRepository) CreateUser(email, hashedPassword string, language domain.LocaleCode) (User, error) {
	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		Language:     language,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte("user:" + email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		} else if !goerrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user from Badger.
func (u UserRepository) GetUserByEmail(email string) (User, error) {
	var user User

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:" + email))
		if err != nil {
			return err // Handled as ErrInvalidCredentials by the auth service
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}
