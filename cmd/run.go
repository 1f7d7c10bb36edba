package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spigell/hh-covergen/internal/ai"
	"github.com/spigell/hh-covergen/internal/ai/gemini"
	"github.com/spigell/hh-covergen/internal/ai/ollama"
	"github.com/spigell/hh-covergen/internal/filtering"
	"github.com/spigell/hh-covergen/internal/headhunter"
	"github.com/spigell/hh-covergen/internal/letter"
	"github.com/spigell/hh-covergen/internal/letterstore"
	"github.com/spigell/hh-covergen/internal/logger"
	"github.com/spigell/hh-covergen/internal/secrets"

	"github.com/gofrs/flock"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes               = "Yes"
	PromptNo                = "No"
	PromptReportByEmployers = "Report by employers"
	PromptVacanciesToFile   = "Dump vacancies to file"

	lockFileName = ".run.lock"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptReportByEmployers, PromptVacanciesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search vacancies and generate cover letters for the new ones",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation if found suitable vacancies")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-covergen", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := validateConfig(config); err != nil {
		logger.Fatal("validating the config", zap.Error(err))
	}

	candidate, err := loadCandidate(config)
	if err != nil {
		logger.Fatal("loading the candidate profile", zap.Error(err))
	}

	token, err := resolveToken(config)
	if err != nil {
		logger.Fatal(
			"loading headhunter token",
			zap.Error(err),
			zap.String("hint", "set HH_TOKEN_FILE environment variable or the 'token-file' key in the configuration file"),
		)
	}

	dir := lettersDir()

	store, err := letterstore.New(dir, logger)
	if err != nil {
		logger.Fatal("opening the letter store", zap.Error(err))
	}

	lock := flock.New(filepath.Join(dir, lockFileName))

	locked, err := lock.TryLock()
	if err != nil {
		logger.Fatal("acquiring the run lock", zap.Error(err))
	}

	if !locked {
		logger.Fatal("another run holds the letters dir", zap.String("lock", lock.Path()))
	}
	defer lock.Unlock()

	cache := letterstore.NewCache(store, logger)
	if err := cache.Load(); err != nil {
		logger.Fatal("loading the letter cache", zap.Error(err))
	}

	logger.Info("known vacancies loaded", zap.Int("count", cache.Len()), zap.String("letters_dir", dir))

	hh := headhunter.New(ctx, logger, token)

	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}

	if config.RateLimit > 0 {
		hh.SetRateLimit(config.RateLimit)
	}

	logger.Info("starting the search", zap.String("search", config.Search.Text))

	vacancies, err := hh.Search(config.Search)
	if err != nil {
		logger.Fatal("searching vacancies", zap.Error(err))
	}

	logger.Info("getting vacancies", zap.Int("count", vacancies.Len()))

	if vacancies.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no vacancies found"))
		return
	}

	vacancies, err = applyFilters(ctx, config, cache, vacancies, logger)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}

	if vacancies.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no vacancies left after filters"))
		return
	}

	pipeline, err := newPipeline(ctx, config, store, candidate, logger)
	if err != nil {
		logger.Fatal("building the letter pipeline", zap.Error(err))
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current list of vacancies", zap.Int("count", vacancies.Len()))

		if err := handleAction(ctx, action, hh, pipeline, vacancies, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, hh *headhunter.Client, pipeline *letter.Pipeline, vacancies *headhunter.Vacancies, logger *zap.Logger) error {
	switch action {
	case PromptYes:
		generateLetters(ctx, hh, pipeline, vacancies, logger)
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByEmployers:
		pretty, _ := json.MarshalIndent(vacancies.ReportByEmployer(), "", "  ")
		logger.Info(string(pretty), zap.Int("vacancies count", vacancies.Len()))
		return nil
	case PromptVacanciesToFile:
		filename, err := vacancies.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// generateLetters walks the vacancy list newest first. Per-vacancy failures
// are logged and skipped so one vacancy cannot sink the batch.
func generateLetters(ctx context.Context, hh *headhunter.Client, pipeline *letter.Pipeline, vacancies *headhunter.Vacancies, logger *zap.Logger) {
	var accepted, defective, failed int

	for _, vacancy := range vacancies.Items {
		vlog := logger.With(zap.String("vacancy_id", vacancy.ID), zap.String("vacancy_name", vacancy.Name))

		id, err := headhunter.ParseVacancyID(vacancy)
		if err != nil {
			failed++
			vlog.Error("skipping vacancy", zap.Error(err))
			continue
		}

		detail, err := hh.GetVacancy(id)
		if err != nil {
			// The search snippet alone is still enough for a prompt.
			vlog.Warn("fetching vacancy details", zap.Error(err))
			detail = nil
		}

		_, err = pipeline.Process(ctx, id, letter.NewVacancyContext(vacancy, detail))

		var exhausted *letter.BudgetExhaustedError

		switch {
		case err == nil:
			accepted++
		case errors.As(err, &exhausted):
			defective++
		default:
			failed++
			vlog.Error("generating the letter", zap.Error(err))
		}
	}

	logger.Info("finished generating letters",
		zap.Int("accepted", accepted),
		zap.Int("defective", defective),
		zap.Int("failed", failed),
	)
}

func applyFilters(ctx context.Context, config *Config, cache *letterstore.Cache, vacancies *headhunter.Vacancies, log *zap.Logger) (*headhunter.Vacancies, error) {
	steps := []filtering.Filter{
		filtering.NewSeen(),
		filtering.NewWithTest(),
		filtering.NewKeywords(),
		filtering.NewEmployers(),
	}

	if config.Search.WithTest {
		filtering.DisableByName(steps, "with_test", "vacancies with employer tests allowed by config")
	}

	cfg := &filtering.Config{}
	if config.Exclude != nil {
		cfg.Employers = config.Exclude.Employers
		cfg.ExcludeKeywords = config.Exclude.Keywords
	}

	if config.Include != nil {
		cfg.IncludeKeywords = config.Include.Keywords
	}

	deps := filtering.Deps{Logger: log, Cache: cache}

	return filtering.Run(ctx, cfg, deps, steps, vacancies)
}

func newPipeline(ctx context.Context, config *Config, store *letterstore.Store, candidate *letter.Candidate, base *zap.Logger) (*letter.Pipeline, error) {
	generator, err := newGenerator(ctx, config.Generation, base)
	if err != nil {
		return nil, fmt.Errorf("building the generator: %w", err)
	}

	cfg := &letter.Config{
		AdequacyRounds:    config.Generation.AdequacyRounds,
		PunctuationRounds: config.Generation.PunctuationRounds,
	}

	plog := logger.WithGenerator(base, generatorProvider(config.Generation), generator.Model())

	return letter.NewPipeline(generator, store, candidate, cfg, plog)
}

func newGenerator(ctx context.Context, cfg *GenerationConfig, base *zap.Logger) (ai.Generator, error) {
	provider := generatorProvider(cfg)

	switch provider {
	case providerOllama:
		ocfg := &ollama.Config{
			URL:         cfg.Ollama.URL,
			Model:       cfg.Ollama.Model,
			Timeout:     cfg.Ollama.Timeout,
			MaxTokens:   cfg.Ollama.MaxTokens,
			Temperature: cfg.Ollama.Temperature,
			TopP:        cfg.Ollama.TopP,
			Stop:        cfg.Ollama.Stop,
		}

		return ollama.New(ocfg, logger.WithGenerator(base, provider, ocfg.Model))
	case providerGemini:
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set generation.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		return gemini.New(ctx, apiKey, cfg.Gemini.Model, ai.Options{})
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}

func loadCandidate(config *Config) (*letter.Candidate, error) {
	skills, err := secrets.Load(secrets.Source{
		Name: "candidate skills",
		File: config.Candidate.SkillsFile,
	})
	if err != nil {
		return nil, err
	}

	about, err := secrets.Load(secrets.Source{
		Name:  "candidate about",
		Value: config.Candidate.About,
	})
	if err != nil {
		return nil, err
	}

	return &letter.Candidate{About: about, Skills: skills}, nil
}

func resolveToken(config *Config) (string, error) {
	tokenFile := config.TokenFile
	if tokenFile == "" {
		tokenFile = viper.GetString("token-file")
	}

	// Public search endpoints work unauthenticated.
	return secrets.Load(secrets.Source{
		Name:     "headhunter token",
		File:     tokenFile,
		Optional: true,
	})
}
