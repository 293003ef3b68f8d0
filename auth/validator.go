package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	"babelroom/domain"
	"babelroom/errors"
)

var validate = validator.New()

type RegisterRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=12,max=72"`
	Language string `validate:"required"`
}

// ValidateRegister checks the request shape, the password complexity and
// that the requested delivery language is one the translator supports.
func ValidateRegister(req RegisterRequest, supported domain.Languages) error {
	if err := validate.Struct(req); err != nil {
		return err
	}

	if !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}

	if !supported.Contains(domain.LocaleCode(req.Language)) {
		return errors.ErrUnsupportedLanguage
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
