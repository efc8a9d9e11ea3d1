package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-analyst/internal/server"
)

const (
	app = "hh-analyst"
)

type Config struct {
	Search     *SearchConfig     `mapstructure:"search"`
	HeadHunter *HeadHunterConfig `mapstructure:"headhunter"`
	Cache      *CacheConfig      `mapstructure:"cache"`
	Filters    *FiltersConfig    `mapstructure:"filters"`
	Analysis   *AnalysisConfig   `mapstructure:"analysis"`
	Storage    *StorageConfig    `mapstructure:"storage"`
	Notify     *NotifyConfig     `mapstructure:"notify"`
	Server     server.Config     `mapstructure:"server"`
	AI         *AIConfig         `mapstructure:"ai"`
	Telemetry  *TelemetryConfig  `mapstructure:"telemetry"`
}

type SearchConfig struct {
	Text       string        `mapstructure:"text"`
	Location   string        `mapstructure:"location"`
	MaxResults int           `mapstructure:"max-results"`
	MaxAge     time.Duration `mapstructure:"max-age"`
}

type HeadHunterConfig struct {
	TokenFile         string  `mapstructure:"token-file"`
	UserAgent         string  `mapstructure:"user-agent"`
	APIURL            string  `mapstructure:"api-url"`
	Areas             []int   `mapstructure:"areas"`
	Details           bool    `mapstructure:"details"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
}

type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type FiltersConfig struct {
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	ExcludeFile      string   `mapstructure:"exclude-file"`
	KeepDuplicates   bool     `mapstructure:"keep-duplicates"`
}

type AnalysisConfig struct {
	Year       int      `mapstructure:"year"`
	TopTitles  int      `mapstructure:"top-titles"`
	Vocabulary []string `mapstructure:"vocabulary"`
}

type StorageConfig struct {
	PublicDir string `mapstructure:"public-dir"`
}

type NotifyConfig struct {
	WebhookURL        string `mapstructure:"webhook-url"`
	WebhookSecret     string `mapstructure:"webhook-secret"`
	WebhookSecretFile string `mapstructure:"webhook-secret-file"`
	NATSURL           string `mapstructure:"nats-url"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	ReviewAttempts int    `mapstructure:"review-attempts"`
}

type TelemetryConfig struct {
	Collector string `mapstructure:"collector"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-analyst collects job postings, turns them into market reports and reviews CVs against them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

var envBindings = map[string]string{
	"headhunter.token-file":  "HH_TOKEN_FILE",
	"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	"ai.gemini.api-key":      "GEMINI_API_KEY",
	"notify.webhook-secret":  "WEBHOOK_SECRET",
	"notify.webhook-url":     "WEBHOOK_URL",
	"notify.nats-url":        "NATS_URL",
	"cache.redis-addr":       "REDIS_ADDR",
	"telemetry.collector":    "OTEL_EXPORTER_OTLP_ENDPOINT",
	"storage.public-dir":     "PUBLIC_DIR",
	"server.addr":            "LISTEN_ADDR",
}

func init() {
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-analyst.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && cfgFile == "" {
		// Everything can be configured through the environment.
		return
	}

	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return config, err
	}

	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.HeadHunter == nil {
		config.HeadHunter = &HeadHunterConfig{}
	}
	if config.Cache == nil {
		config.Cache = &CacheConfig{}
	}
	if config.Filters == nil {
		config.Filters = &FiltersConfig{}
	}
	if config.Analysis == nil {
		config.Analysis = &AnalysisConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Notify == nil {
		config.Notify = &NotifyConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Telemetry == nil {
		config.Telemetry = &TelemetryConfig{}
	}

	return config, nil
}
