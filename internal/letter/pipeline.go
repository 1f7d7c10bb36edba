package letter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/ai"
	"github.com/spigell/hh-covergen/internal/headhunter"
)

// Status tags the outcome of one letter attempt.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusDefective Status = "defective"
)

const (
	propertyAdequacy    = "adequacy"
	propertyPunctuation = "punctuation"

	defaultAdequacyRounds    = 3
	defaultPunctuationRounds = 2
)

// Store is where finished letters land. Accepted and defective letters are
// kept apart so the export bundle only picks up accepted ones.
type Store interface {
	SaveAccepted(id headhunter.VacancyID, text string) (string, error)
	SaveDefective(id headhunter.VacancyID, text string) (string, error)
}

// Result is the outcome of one letter generation attempt. The round counters
// report how many checks each validation stage ran.
type Result struct {
	Status            Status
	Text              string
	Path              string
	AdequacyRounds    int
	PunctuationRounds int
}

// BudgetExhaustedError reports a letter that kept failing one validation
// property until its round budget ran out.
type BudgetExhaustedError struct {
	Property  string
	VacancyID headhunter.VacancyID
	Rounds    int
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("letter for vacancy %s failed %s validation after %d rounds", e.VacancyID, e.Property, e.Rounds)
}

// Config bounds the validation loop. A budget of N means at most N checks
// and N-1 repairs per property: a letter failing its last check is rejected
// without one more repair nobody would validate.
type Config struct {
	AdequacyRounds    int
	PunctuationRounds int
}

// Pipeline runs the generate, validate and repair loop for one vacancy at a
// time. Adequacy is validated before punctuation; a letter must clear both
// stages to be accepted.
type Pipeline struct {
	generator ai.Generator
	oracle    *Oracle
	refiner   *Refiner
	prompts   *Prompts
	store     Store
	candidate *Candidate
	logger    *zap.Logger

	adequacyRounds    int
	punctuationRounds int
}

func NewPipeline(generator ai.Generator, store Store, candidate *Candidate, cfg *Config, logger *zap.Logger) (*Pipeline, error) {
	if candidate == nil || strings.TrimSpace(candidate.Skills) == "" {
		return nil, errors.New("candidate skills are required")
	}

	prompts, err := LoadPrompts()
	if err != nil {
		return nil, err
	}

	adequacyRounds := defaultAdequacyRounds
	punctuationRounds := defaultPunctuationRounds
	if cfg != nil {
		if cfg.AdequacyRounds > 0 {
			adequacyRounds = cfg.AdequacyRounds
		}
		if cfg.PunctuationRounds > 0 {
			punctuationRounds = cfg.PunctuationRounds
		}
	}

	return &Pipeline{
		generator:         generator,
		oracle:            NewOracle(generator, logger),
		refiner:           NewRefiner(generator, prompts, logger),
		prompts:           prompts,
		store:             store,
		candidate:         candidate,
		logger:            logger,
		adequacyRounds:    adequacyRounds,
		punctuationRounds: punctuationRounds,
	}, nil
}

// Process generates a letter for one vacancy and walks it through both
// validation stages. A letter that passes lands in the store as accepted.
// A letter that exhausts a validation budget is stored as defective; the
// returned result carries the defective status and the error is a
// *BudgetExhaustedError, so the caller can log and move on. Backend failures
// abort the attempt without storing anything.
func (p *Pipeline) Process(ctx context.Context, id headhunter.VacancyID, vacancy *VacancyContext) (*Result, error) {
	vacancyBlock := vacancy.Render()

	prompt, err := p.prompts.Compose(p.candidate, vacancyBlock)
	if err != nil {
		return nil, err
	}

	p.logger.Info("generating letter",
		zap.String("vacancy_id", id.String()),
		zap.String("model", p.generator.Model()),
	)

	text, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("compose letter for vacancy %s: %w", id, err)
	}

	result := &Result{Text: text}

	adequacyWish, err := p.prompts.AdequacyFixWish(p.candidate.Skills, vacancyBlock)
	if err != nil {
		return nil, err
	}

	p.logger.Info("validating adequacy", zap.String("vacancy_id", id.String()))
	text, rounds, err := p.validate(ctx, id, text, propertyAdequacy, p.adequacyRounds,
		func(current string) (string, error) {
			return p.prompts.AdequacyCheck(current, p.candidate.Skills, vacancyBlock)
		}, adequacyWish)
	result.Text = text
	result.AdequacyRounds = rounds
	if err != nil {
		return p.reject(id, result, err)
	}

	punctuationWish, err := p.prompts.PunctuationFixWish()
	if err != nil {
		return nil, err
	}

	p.logger.Info("validating punctuation", zap.String("vacancy_id", id.String()))
	text, rounds, err = p.validate(ctx, id, text, propertyPunctuation, p.punctuationRounds,
		p.prompts.PunctuationCheck, punctuationWish)
	result.Text = text
	result.PunctuationRounds = rounds
	if err != nil {
		return p.reject(id, result, err)
	}

	// The store error already names the vacancy.
	path, err := p.store.SaveAccepted(id, text)
	if err != nil {
		return nil, err
	}

	result.Status = StatusAccepted
	result.Path = path

	p.logger.Info("letter accepted",
		zap.String("vacancy_id", id.String()),
		zap.String("path", path),
		zap.Int("adequacy_rounds", result.AdequacyRounds),
		zap.Int("punctuation_rounds", result.PunctuationRounds),
	)

	return result, nil
}

// validate runs the bounded check-and-repair loop for one property. It
// returns the final text, the number of checks performed and nil on a passing
// check, a *BudgetExhaustedError when every round failed, or the backend
// error that interrupted the loop. An ambiguous oracle answer counts as a
// failed check and consumes its round.
func (p *Pipeline) validate(
	ctx context.Context,
	id headhunter.VacancyID,
	text, property string,
	rounds int,
	checkPrompt func(current string) (string, error),
	wish string,
) (string, int, error) {
	for round := 1; round <= rounds; round++ {
		prompt, err := checkPrompt(text)
		if err != nil {
			return text, round - 1, err
		}

		ok, err := p.oracle.Ask(ctx, prompt)
		if err != nil {
			var ambiguous *AmbiguousAnswerError
			if !errors.As(err, &ambiguous) {
				return text, round, fmt.Errorf("%s check for vacancy %s: %w", property, id, err)
			}

			p.logger.Warn("ambiguous check answer",
				zap.String("vacancy_id", id.String()),
				zap.String("property", property),
				zap.Int("round", round),
				zap.String("answer", ambiguous.Answer),
			)
			ok = false
		}

		if ok {
			return text, round, nil
		}

		if round == rounds {
			break
		}

		p.logger.Info("refining letter",
			zap.String("vacancy_id", id.String()),
			zap.String("property", property),
			zap.Int("round", round),
		)

		text, err = p.refiner.Refine(ctx, text, wish)
		if err != nil {
			return text, round, fmt.Errorf("%s repair for vacancy %s: %w", property, id, err)
		}
	}

	return text, rounds, &BudgetExhaustedError{Property: property, VacancyID: id, Rounds: rounds}
}

// reject finishes an attempt whose validation failed. Only budget exhaustion
// produces a defective record; any other failure propagates without one so a
// flaky backend does not litter the store.
func (p *Pipeline) reject(id headhunter.VacancyID, result *Result, cause error) (*Result, error) {
	var exhausted *BudgetExhaustedError
	if !errors.As(cause, &exhausted) {
		return nil, cause
	}

	path, err := p.store.SaveDefective(id, result.Text)
	if err != nil {
		return nil, err
	}

	result.Status = StatusDefective
	result.Path = path

	p.logger.Warn("letter rejected",
		zap.String("vacancy_id", id.String()),
		zap.String("property", exhausted.Property),
		zap.Int("rounds", exhausted.Rounds),
		zap.String("path", path),
	)

	return result, cause
}
