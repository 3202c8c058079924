package groq

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

// Client produces chat completions against Groq's OpenAI-compatible
// API. Temperature stays low: the output contract wants grounded,
// structured text, not creative variance.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:      envutil.String("GROQ_API_KEY", ""),
		BaseURL:     envutil.String("GROQ_BASE_URL", ""),
		Model:       envutil.String("GROQ_MODEL", ""),
		Temperature: envutil.Float("GROQ_TEMPERATURE", 0.3),
		MaxTokens:   envutil.Int("GROQ_MAX_TOKENS", 1024),
		Timeout:     envutil.Duration("GROQ_TIMEOUT", 0),
		MaxRetries:  envutil.Int("GROQ_MAX_RETRIES", 2),
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
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Groq API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "llama-3.3-70b-versatile"
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:  log.With("client", "GroqClient"),
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *client) Complete(ctx context.Context, system, user string) (string, error) {
	if strings.TrimSpace(user) == "" {
		return "", errs.Wrap(errs.KindExternalPermanent, fmt.Errorf("empty user prompt"))
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var out chatResponse
	start := time.Now()
	if err := c.doJSON(ctx, "/chat/completions", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errs.Wrap(errs.KindExternalPermanent, fmt.Errorf("groq returned no choices"))
	}

	c.log.Debug("completion ok",
		"model", c.cfg.Model,
		"prompt_tokens", out.Usage.PromptTokens,
		"completion_tokens", out.Usage.CompletionTokens,
		"took", time.Since(start).String(),
	)
	return out.Choices[0].Message.Content, nil
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string       { return fmt.Sprintf("groq http %d: %s", e.Status, e.Body) }
func (e *apiError) HTTPStatusCode() int { return e.Status }

func (c *client) doJSON(ctx context.Context, path string, body, out any) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	backoff := time.Second

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

		sleep := httpx.Jitter(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("groq request retrying",
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
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
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
			return resp, fmt.Errorf("groq decode: %w", err)
		}
	}
	return resp, nil
}
