package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/ai"
	"github.com/spigell/hh-covergen/internal/utils"
)

const (
	defaultURL     = "http://ollama:11434"
	generatePath   = "/api/generate"
	defaultTimeout = 300 * time.Second

	defaultMaxLogLength = 200
)

// Client talks to an ollama server over its /api/generate endpoint.
type Client struct {
	baseURL    string
	model      string
	options    ai.Options
	httpClient *http.Client
	logger     *zap.Logger
}

// Config stores ollama provider configuration.
type Config struct {
	URL         string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// A pointer distinguishes a missing response field from an empty one.
type generateResponse struct {
	Response *string `json:"response"`
}

// New creates an ollama backed generator.
func New(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("ollama config is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("ollama model is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		baseURL = defaultURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		options: ai.Options{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			Stop:        cfg.Stop,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Generate sends the prompt as a single non-streamed completion request and
// returns the cleaned model output.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload := &generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			NumPredict:  c.options.MaxTokens,
			Temperature: c.options.Temperature,
			TopP:        c.options.TopP,
			Stop:        c.options.Stop,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := c.baseURL + generatePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("ollama generate request",
		zap.String("model", c.model),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, defaultMaxLogLength)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("ollama server error",
			zap.Int("status", resp.StatusCode),
			zap.String("details", utils.TruncateForLog(string(raw), defaultMaxLogLength)),
		)
		return "", fmt.Errorf("ollama returned status %d: %w", resp.StatusCode, ai.ErrBackendUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned unexpected status %s", resp.Status)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed json from ollama: %w", ai.ErrInvalidResponse)
	}
	if parsed.Response == nil {
		return "", fmt.Errorf("response field is missing: %w", ai.ErrInvalidResponse)
	}

	output := ai.CleanResponse(*parsed.Response)

	c.logger.Debug("ollama generate response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, defaultMaxLogLength)),
	)

	return output, nil
}

func (c *Client) Model() string { return c.model }
