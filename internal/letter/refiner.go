package letter

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/ai"
)

// Refiner rewrites a letter according to an edit wish. It carries no state
// and performs no validation of its own.
type Refiner struct {
	generator ai.Generator
	prompts   *Prompts
	logger    *zap.Logger
}

func NewRefiner(generator ai.Generator, prompts *Prompts, logger *zap.Logger) *Refiner {
	return &Refiner{generator: generator, prompts: prompts, logger: logger}
}

// Refine returns the backend's rewrite of text according to wish. The output
// replaces the current candidate text wholesale.
func (r *Refiner) Refine(ctx context.Context, text, wish string) (string, error) {
	prompt, err := r.prompts.Rewrite(wish, text)
	if err != nil {
		return "", err
	}

	refined, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	r.logger.Debug("letter rewritten",
		zap.Int("old_len", utf8.RuneCountInString(text)),
		zap.Int("new_len", utf8.RuneCountInString(refined)),
	)

	return refined, nil
}
