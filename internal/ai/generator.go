package ai

import (
	"context"
	"errors"
)

// Generator produces one completion for one prompt. Implementations wrap a
// concrete LLM backend and normalize its failure modes into the sentinel
// errors below.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Options are the sampling settings shared by all backends.
type Options struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
}

var (
	// ErrBackendUnavailable marks a backend that answered but cannot serve
	// right now, e.g. an HTTP 500 from ollama. Retrying later may help.
	ErrBackendUnavailable = errors.New("ai backend unavailable")

	// ErrInvalidResponse marks a backend answer that does not follow the
	// expected format. Retrying with the same input is unlikely to help.
	ErrInvalidResponse = errors.New("invalid ai backend response")
)
