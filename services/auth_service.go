package services

import (
	"fmt"

	"babelroom/auth"
	"babelroom/domain"
	"babelroom/errors"
	"babelroom/repositories"
)

type IAuthService interface {
	Register(email, password string, language domain.LocaleCode) (Token, error)
	Login(email, password string) (Token, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokens         *auth.TokenManager
	supported      domain.Languages
}

func NewAuthService(repo repositories.IUserRepository, tokens *auth.TokenManager,
	supported domain.Languages) IAuthService {
	return &AuthService{userRepository: repo, tokens: tokens, supported: supported}
}

// Register creates an account with a fixed delivery language and returns the
// initial session token. The language cannot be changed afterwards.
func (s *AuthService) Register(email, password string, language domain.LocaleCode) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
		Language: string(language),
	}

	// Validated before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq, s.supported); err != nil {
		return "", fmt.Errorf("registration rejected: %w", err)
	}

	// Hashing stays in the service layer so the repository never sees a
	// plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(email, hashedPassword, language)
	if err != nil {
		return "", err // propagates ErrUserAlreadyExists when the email is taken
	}

	token, err := s.tokens.GenerateToken(user.ToDomain())
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}

func (s *AuthService) Login(email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ToDomain())
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	return Token(token), nil
}
