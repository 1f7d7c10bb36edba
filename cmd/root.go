package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spigell/hh-covergen/internal/headhunter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "hh-covergen"

	providerOllama = "ollama"
	providerGemini = "gemini"

	defaultLettersDir = "letters"
)

type Config struct {
	Search     *headhunter.SearchRequest `mapstructure:"search"`
	Exclude    *ExcludeConfig            `mapstructure:"exclude"`
	Include    *IncludeConfig            `mapstructure:"include"`
	Letters    *LettersConfig            `mapstructure:"letters"`
	Candidate  *CandidateConfig          `mapstructure:"candidate"`
	Generation *GenerationConfig         `mapstructure:"generation"`
	UserAgent  string                    `mapstructure:"user-agent"`
	TokenFile  string                    `mapstructure:"token-file"`
	RateLimit  float64                   `mapstructure:"rate-limit"`
}

type ExcludeConfig struct {
	Employers []string `mapstructure:"employers"`
	Keywords  []string `mapstructure:"keywords"`
}

type IncludeConfig struct {
	Keywords []string `mapstructure:"keywords"`
}

type LettersConfig struct {
	Dir string `mapstructure:"dir"`
}

type CandidateConfig struct {
	SkillsFile string `mapstructure:"skills-file"`
	About      string `mapstructure:"about"`
}

type GenerationConfig struct {
	Provider          string        `mapstructure:"provider"`
	AdequacyRounds    int           `mapstructure:"adequacy-rounds"`
	PunctuationRounds int           `mapstructure:"punctuation-rounds"`
	Ollama            *OllamaConfig `mapstructure:"ollama"`
	Gemini            *GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	URL         string        `mapstructure:"url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxTokens   int           `mapstructure:"max-tokens"`
	Temperature float64       `mapstructure:"temperature"`
	TopP        float64       `mapstructure:"top-p"`
	Stop        []string      `mapstructure:"stop"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-covergen is a simple cli for searching vacancies on hh.ru and generating cover letters for them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("generation.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	viper.SetDefault("letters.dir", defaultLettersDir)
	viper.SetDefault("generation.provider", providerOllama)
	viper.SetDefault("generation.adequacy-rounds", 3)
	viper.SetDefault("generation.punctuation-rounds", 2)
	viper.SetDefault("generation.ollama.max-tokens", 350)
	viper.SetDefault("generation.ollama.temperature", 0.5)
	viper.SetDefault("generation.ollama.top-p", 0.85)
	// Stop sequences cut the model off when it starts a second letter.
	viper.SetDefault("generation.ollama.stop", []string{"\n\n\n", "Добрый день, я", "Уважаемые"})

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-covergen.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("letters-dir", "", "directory where generated letters are stored")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("letters.dir", rootCmd.PersistentFlags().Lookup("letters-dir"))
}

func initConfig() {
	// Config is needed for the run and export commands only.
	if runCmd.CalledAs() == "" && exportCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Export needs only the letters dir, which flags can supply.
		var notFound viper.ConfigFileNotFoundError
		if exportCmd.CalledAs() != "" && errors.As(err, &notFound) {
			return
		}

		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config == nil {
		return errors.New("config is required")
	}

	if config.Search == nil || strings.TrimSpace(config.Search.Text) == "" {
		return errors.New("search.text is required")
	}

	if config.Candidate == nil || strings.TrimSpace(config.Candidate.SkillsFile) == "" {
		return errors.New("candidate.skills-file is required")
	}

	if strings.TrimSpace(config.Candidate.About) == "" {
		return errors.New("candidate.about is required")
	}

	if config.Generation == nil {
		return errors.New("generation section is required")
	}

	if config.Generation.AdequacyRounds < 1 {
		return errors.New("generation.adequacy-rounds must be positive")
	}

	if config.Generation.PunctuationRounds < 1 {
		return errors.New("generation.punctuation-rounds must be positive")
	}

	switch generatorProvider(config.Generation) {
	case providerOllama:
		if config.Generation.Ollama == nil || strings.TrimSpace(config.Generation.Ollama.Model) == "" {
			return errors.New("generation.ollama.model is required for the ollama provider")
		}
	case providerGemini:
		if config.Generation.Gemini == nil {
			return errors.New("generation.gemini section is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unsupported generation provider: %s", config.Generation.Provider)
	}

	return nil
}

func generatorProvider(cfg *GenerationConfig) string {
	if cfg == nil {
		return providerOllama
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		return providerOllama
	}

	return provider
}

func lettersDir() string {
	dir := strings.TrimSpace(viper.GetString("letters.dir"))
	if dir == "" {
		return defaultLettersDir
	}

	return dir
}
