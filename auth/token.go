package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"babelroom/domain"
)

// CustomClaims carries the identity the transport needs to rebuild a viewer
// without a store lookup. Language is the viewer's delivery language, fixed
// at registration.
type CustomClaims struct {
	UserID   string            `json:"user_id"`
	Email    string            `json:"email"`
	Roles    []string          `json:"roles"`
	Language domain.LocaleCode `json:"language"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens with a configured secret.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration}
}

// GenerateToken creates a signed JWT for the given user.
func (m *TokenManager) GenerateToken(user domain.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Roles:    user.Roles,
		Language: user.PreferredLanguage,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "babelroom",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses a JWT string and verifies its signature and expiration.
func (m *TokenManager) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
