package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/spigell/hh-covergen/internal/ai"
)

const (
	defaultModel = "gemini-2.5-pro"
)

// Client wraps the Google GenAI SDK behind the common generator interface.
type Client struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// New creates a client configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, opts ai.Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{
		client: client,
		model:  model,
		config: generationConfig(opts),
	}, nil
}

// generationConfig maps the shared sampling options onto the genai config.
// Zero values mean "use the model default" and are not sent.
func generationConfig(opts ai.Options) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Temperature > 0 {
		temperature := float32(opts.Temperature)
		cfg.Temperature = &temperature
	}
	if opts.TopP > 0 {
		topP := float32(opts.TopP)
		cfg.TopP = &topP
	}
	if len(opts.Stop) > 0 {
		cfg.StopSequences = append([]string{}, opts.Stop...)
	}

	return cfg
}

// Generate sends the prompt to Gemini and returns the first textual response,
// cleaned the same way as any other backend output.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code >= http.StatusInternalServerError {
			return "", fmt.Errorf("gemini api error %d: %w", apiErr.Code, ai.ErrBackendUnavailable)
		}
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", fmt.Errorf("gemini api returned empty response: %w", ai.ErrInvalidResponse)
	}

	return ai.CleanResponse(output), nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
