package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"babelroom/domain"
	"babelroom/errors"
)

// Client calls the translation endpoint over HTTP/JSON.
// One outbound call per invocation: no retry, no backoff, no circuit breaker.
// Failures are expected to be masked by the Fallback decorator.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	supported  domain.Languages
	log        *slog.Logger
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

func NewClient(log *slog.Logger, endpoint, apiKey string,
	supported domain.Languages, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		supported:  supported,
		log:        log,
	}
}

// Translate posts {text, targetLanguage} and extracts {translatedText}.
// The target must belong to the configured supported set; this is checked
// before any network call.
func (c *Client) Translate(ctx context.Context, text string, target domain.LocaleCode) (string, error) {
	if text == "" {
		return "", errors.ErrEmptyMessage
	}
	if !c.supported.Contains(target) {
		return "", fmt.Errorf("%w: %q not in [%s]", errors.ErrUnsupportedLanguage, target, c.supported)
	}

	body, err := json.Marshal(translateRequest{Text: text, TargetLanguage: string(target)})
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded translateResponse
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("malformed provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("provider returned %d: %s", resp.StatusCode, decoded.Error)
	}
	if decoded.TranslatedText == "" {
		return "", fmt.Errorf("provider returned an empty translation")
	}
	return decoded.TranslatedText, nil
}
