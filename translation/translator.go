//go:generate go run go.uber.org/mock/mockgen -source=translator.go -destination=../mocks/mock_translator.go -package=mocks
// Package translation turns message content into the viewer's preferred
// language through an external generative-model provider.
package translation

import (
	"context"

	"babelroom/domain"
)

// Translator translates text into the target locale.
// Implementations issue at most one outbound call per invocation.
type Translator interface {
	Translate(ctx context.Context, text string, target domain.LocaleCode) (string, error)
}
