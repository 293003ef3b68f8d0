package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"babelroom/domain"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	supported := domain.NewLanguages(domain.English, domain.Spanish)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!", "es"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!", "es"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!", "es"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPass!", "es"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123", "es"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!", "es"}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", strings.Repeat("a", 73), "es"}, true},
		{"Unsupported language", RegisterRequest{"test@example.com", "ComplexPass123!", "xx"}, true},
		{"Missing language", RegisterRequest{"test@example.com", "ComplexPass123!", ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req, supported)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundtrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)
	user := domain.User{
		ID:                "user-1",
		Email:             "alice@mail.com",
		PreferredLanguage: domain.Spanish,
		Roles:             []string{"user"},
	}

	token, err := manager.GenerateToken(user)
	req.NoError(err)

	claims, err := manager.ValidateToken(token)
	req.NoError(err)
	req.Equal(user.ID, claims.UserID)
	req.Equal(user.Email, claims.Email)
	req.Equal(user.PreferredLanguage, claims.Language)
	req.Equal(user.Roles, claims.Roles)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	token, err := manager.GenerateToken(domain.User{ID: "user-1", Email: "alice@mail.com"})
	req.NoError(err)

	_, err = other.ValidateToken(token)
	req.Error(err)
}

func TestTokenRejectsExpired(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken(domain.User{ID: "user-1", Email: "alice@mail.com"})
	req.NoError(err)

	_, err = manager.ValidateToken(token)
	req.Error(err)
}

// BenchmarkHashPassword permet de mesurer l'impact CPU/RAM (Crucial pour K8s)
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
