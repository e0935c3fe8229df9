// Package translate talks to a LibreTranslate-compatible machine translation
// endpoint. Long texts are split into bounded chunks before submission because
// the underlying models truncate past their input window.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dubber/internal/services"
)

const (
	defaultHTTPTimeout = 120 * time.Second

	// maxChunkRunes bounds one translation request. Inputs longer than this
	// are split at the last space before the limit and re-joined in order.
	maxChunkRunes = 512
)

// Config captures the runtime settings for the translation endpoint.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client wraps the translation HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a translation client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Translate converts text from source to target language. source may be empty
// for server-side detection. Chunked requests preserve input order.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", services.Wrap(services.ErrValidation, "translate", "translate", "target language required", nil)
	}
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	var out []string
	for _, chunk := range ChunkText(text, maxChunkRunes) {
		translated, err := c.translateChunk(ctx, chunk, source, target)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}
	return strings.Join(out, " "), nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func (c *Client) translateChunk(ctx context.Context, chunk, source, target string) (string, error) {
	if source == "" {
		source = "auto"
	}
	payload := translateRequest{
		Q:      chunk,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.cfg.APIKey,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("translate request: encode body: %w", err)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "translate")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "translate", "translate", "invalid base URL", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("translate request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "translate", "translate", "translation endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("translate request: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "translate", "translate",
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded translateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("translate request: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "translate", "translate", decoded.Error, nil)
	}
	return decoded.TranslatedText, nil
}

// ChunkText splits text into chunks of at most limit runes, preferring to
// break at the last space inside the window. A single overlong word is split
// hard at the limit.
func ChunkText(text string, limit int) []string {
	if limit <= 0 {
		return []string{text}
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == ' ' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), " "))
		runes = runes[cut:]
	}
	return chunks
}
