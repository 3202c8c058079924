package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakshampandey1901/Cite/internal/pkg/errs"
	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/httpx"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
)

// Dimension every vector written to or queried from the index must
// carry. The index is created with this dimension and rejects others.
const Dimension = 384

// Client turns text into fixed-dimension embeddings via an
// OpenAI-compatible /embeddings endpoint.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("EMBEDDING_API_KEY", ""),
		BaseURL:    envutil.String("EMBEDDING_BASE_URL", ""),
		Model:      envutil.String("EMBEDDING_MODEL", ""),
		Timeout:    envutil.Duration("EMBEDDING_TIMEOUT", 0),
		MaxRetries: envutil.Int("EMBEDDING_MAX_RETRIES", 2),
	}
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing embedding base URL")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "all-MiniLM-L6-v2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:  log.With("client", "EmbeddingClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out embedResponse
	if err := c.doJSON(ctx, embedRequest{Model: c.cfg.Model, Input: texts}, &out); err != nil {
		return nil, err
	}
	if len(out.Data) != len(texts) {
		return nil, errs.Wrap(errs.KindExternalPermanent,
			fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(out.Data)))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range out.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, errs.Wrap(errs.KindExternalPermanent,
				fmt.Errorf("embedding index %d out of range", d.Index))
		}
		if len(d.Embedding) != Dimension {
			return nil, errs.Wrap(errs.KindExternalPermanent,
				fmt.Errorf("embedding dimension %d, want %d", len(d.Embedding), Dimension))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (c *client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errs.Wrap(errs.KindExternalPermanent, fmt.Errorf("expected one embedding, got %d", len(vectors)))
	}
	return vectors[0], nil
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string       { return fmt.Sprintf("embedding http %d: %s", e.Status, e.Body) }
func (e *apiError) HTTPStatusCode() int { return e.Status }

func (c *client) doJSON(ctx context.Context, body, out any) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/embeddings"
	backoff := 500 * time.Millisecond

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := c.doOnce(ctx, url, body, out)
		if err == nil {
			return nil
		}
		if !httpx.IsRetryableError(err) {
			return errs.Wrap(errs.KindExternalPermanent, err)
		}
		if attempt == c.cfg.MaxRetries {
			return errs.Wrap(errs.KindExternalTransient, err)
		}

		sleep := httpx.Jitter(httpx.RetryAfterDuration(resp, backoff, 5*time.Second))
		c.log.Warn("embedding request retrying",
			"attempt", attempt+1,
			"sleep", sleep.String(),
			"error", err.Error(),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		backoff *= 2
	}
}

func (c *client) doOnce(ctx context.Context, url string, body, out any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp, fmt.Errorf("embedding decode: %w", err)
		}
	}
	return resp, nil
}
