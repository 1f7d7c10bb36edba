package letter

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/ai"
)

// A valid verdict is one short word; anything longer is noise, not an answer.
const maxVerdictRunes = 5

// Oracle asks the backend closed questions and maps free-form model output
// onto a binary verdict.
type Oracle struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewOracle(generator ai.Generator, logger *zap.Logger) *Oracle {
	return &Oracle{generator: generator, logger: logger}
}

// AmbiguousAnswerError reports model output that cannot be read as a clear
// yes or no.
type AmbiguousAnswerError struct {
	Answer string
}

func (e *AmbiguousAnswerError) Error() string {
	return fmt.Sprintf("answer %q is not a clear yes or no", e.Answer)
}

// Ask renders no prompt of its own: the caller passes a fully rendered
// question that instructs the model to answer with one word.
func (o *Oracle) Ask(ctx context.Context, prompt string) (bool, error) {
	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return false, err
	}

	verdict, err := ParseYesNo(answer)
	if err != nil {
		return false, err
	}

	o.logger.Debug("oracle verdict", zap.String("answer", answer), zap.Bool("verdict", verdict))

	return verdict, nil
}

// ParseYesNo maps a model answer onto a boolean. The trimmed answer must be
// at most five runes long and contain exactly one of "да" or "нет",
// case-insensitive. Everything else is ambiguous.
func ParseYesNo(answer string) (bool, error) {
	trimmed := strings.TrimSpace(answer)
	if utf8.RuneCountInString(trimmed) > maxVerdictRunes {
		return false, &AmbiguousAnswerError{Answer: answer}
	}

	lowered := strings.ToLower(trimmed)
	yes := strings.Contains(lowered, "да")
	no := strings.Contains(lowered, "нет")

	switch {
	case yes && !no:
		return true, nil
	case no && !yes:
		return false, nil
	default:
		return false, &AmbiguousAnswerError{Answer: answer}
	}
}
