package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai/gemini"
	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/cache"
	"github.com/spigell/hh-analyst/internal/cache/redis"
	"github.com/spigell/hh-analyst/internal/filtering"
	"github.com/spigell/hh-analyst/internal/headhunter"
	"github.com/spigell/hh-analyst/internal/logger"
	"github.com/spigell/hh-analyst/internal/notify"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/postings"
	"github.com/spigell/hh-analyst/internal/secrets"
	"github.com/spigell/hh-analyst/internal/storage"
	"github.com/spigell/hh-analyst/internal/telemetry"
)

// closers collects cleanup functions run in reverse order.
type closers []func()

func (c *closers) add(fn func()) {
	*c = append(*c, fn)
}

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func newSource(config *Config, log *zap.Logger, cleanup *closers) (postings.Source, error) {
	hhCfg := config.HeadHunter

	token, err := secrets.Optional(secrets.Source{
		Name: "headhunter token",
		File: hhCfg.TokenFile,
	})
	if err != nil {
		return nil, err
	}
	if token == "" {
		log.Debug("no headhunter token configured, searching anonymously")
	}

	hh := headhunter.New(log, token, headhunter.Options{
		Areas:             hhCfg.Areas,
		Details:           hhCfg.Details,
		RequestsPerSecond: hhCfg.RequestsPerSecond,
	})
	if hhCfg.UserAgent != "" {
		hh.UserAgent = hhCfg.UserAgent
	}
	if hhCfg.APIURL != "" {
		hh.APIURL = strings.TrimRight(hhCfg.APIURL, "/")
	}

	if strings.TrimSpace(config.Cache.RedisAddr) == "" {
		return hh, nil
	}

	opts := cache.DefaultOptions()
	opts.RedisAddr = config.Cache.RedisAddr
	opts.RedisPassword = config.Cache.RedisPassword
	opts.RedisDB = config.Cache.RedisDB
	if config.Cache.TTL > 0 {
		opts.DefaultTTL = config.Cache.TTL
	}

	c := redis.New(opts)
	cleanup.add(func() { c.Close() })

	log.Info("caching postings in redis", zap.String("addr", opts.RedisAddr), zap.Duration("ttl", opts.DefaultTTL))
	return postings.NewCachedSource(hh, c, opts.DefaultTTL, log), nil
}

func newFilters(config *Config, log *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewDuplicates(),
		filtering.NewExcludedCompanies(config.Filters.ExcludeCompanies, log),
		filtering.NewExcludeFile(config.Filters.ExcludeFile, log),
	}
	if config.Filters.KeepDuplicates {
		filtering.DisableByName(steps, "duplicates", "keep-duplicates is set")
	}
	return filtering.New(steps, log)
}

func newStore(config *Config) (*storage.Store, error) {
	return storage.New(config.Storage.PublicDir, "")
}

func newNotifier(config *Config, log *zap.Logger, cleanup *closers) (notify.Notifier, error) {
	var notifiers notify.Multi

	if url := strings.TrimSpace(config.Notify.WebhookURL); url != "" {
		secret, err := secrets.Optional(secrets.Source{
			Name:  "webhook secret",
			Value: config.Notify.WebhookSecret,
			File:  config.Notify.WebhookSecretFile,
		})
		if err != nil {
			return nil, err
		}
		if secret == "" {
			log.Warn("webhook secret is not configured, using the default one")
			secret = notify.DefaultSecret
		}
		notifiers = append(notifiers, notify.NewWebhook(url, secret, log))
	}

	if url := strings.TrimSpace(config.Notify.NATSURL); url != "" {
		n, err := notify.NewNATS(url, log)
		if err != nil {
			return nil, err
		}
		cleanup.add(n.Close)
		notifiers = append(notifiers, n)
	}

	if len(notifiers) == 0 {
		return notify.Log{Logger: log}, nil
	}
	return notifiers, nil
}

func newAnalyzer(config *Config, log *zap.Logger) *analysis.Analyzer {
	return analysis.NewAnalyzer(
		analysis.WithVocabulary(config.Analysis.Vocabulary),
		analysis.WithTopTitles(config.Analysis.TopTitles),
		analysis.WithAnalyzerLogger(log),
		analysis.WithTracer(telemetry.Tracer("hh-analyst/analysis")),
	)
}

// newGenerator builds the Gemini generator. Keys come from a file with one key per line
// or from an inline comma separated list.
func newGenerator(ctx context.Context, config *Config, log *zap.Logger) (*gemini.Generator, error) {
	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	g := config.AI.Gemini
	keys, err := secrets.LoadKeys(secrets.Source{
		Name:  "gemini api key",
		Value: g.APIKey,
		File:  g.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	ring, err := gemini.NewKeyRing(keys)
	if err != nil {
		return nil, err
	}

	genLogger := log.With(
		zap.String(logger.FieldProvider, gemini.Provider),
		zap.Int("keys", ring.Len()),
		zap.Int("ai_retry_attempts", g.MaxRetries),
	)

	return gemini.NewGenerator(ctx, ring, g.Model,
		gemini.WithMaxRetries(g.MaxRetries),
		gemini.WithMaxLogLength(g.MaxLogLength),
		gemini.WithLogger(genLogger),
	)
}

// newRunner wires the analysis pipeline. The CV reviewer is attached only when Gemini is configured.
func newRunner(ctx context.Context, config *Config, log *zap.Logger, cleanup *closers) (*pipeline.Runner, *storage.Store, *gemini.Generator, error) {
	source, err := newSource(config, log, cleanup)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building posting source: %w", err)
	}

	store, err := newStore(config)
	if err != nil {
		return nil, nil, nil, err
	}

	notifier, err := newNotifier(config, log, cleanup)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building notifier: %w", err)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithNotifier(notifier),
		pipeline.WithFilters(newFilters(config, log)),
		pipeline.WithAnalysisYear(config.Analysis.Year),
	}

	generator, err := newGenerator(ctx, config, log)
	if err != nil {
		log.Warn("ai features are disabled", zap.Error(err))
		generator = nil
	} else {
		reviewer := gemini.NewCVReviewer(generator, config.AI.Gemini.ReviewAttempts, log)
		opts = append(opts, pipeline.WithReviewer(reviewer))
	}

	return pipeline.New(source, store, newAnalyzer(config, log), opts...), store, generator, nil
}
