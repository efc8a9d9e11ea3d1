package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/ai/gemini"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/server"
	"github.com/spigell/hh-analyst/internal/storage"
	"github.com/spigell/hh-analyst/internal/telemetry"
)

const shutdownTimeout = 2 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8000)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

type services struct {
	fx.Out

	Runner    *pipeline.Runner
	Store     *storage.Store
	Generator *gemini.Generator
}

func provideServices(lc fx.Lifecycle, config *Config, logger *zap.Logger) (services, error) {
	var cleanup closers
	runner, store, generator, err := newRunner(context.Background(), config, logger, &cleanup)
	if err != nil {
		cleanup.Close()
		return services{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			cleanup.Close()
			return nil
		},
	})

	return services{Runner: runner, Store: store, Generator: generator}, nil
}

func provideJudge(generator *gemini.Generator, logger *zap.Logger) ai.Judge {
	if generator == nil {
		return nil
	}
	return gemini.NewQuizJudge(generator, logger)
}

func provideServer(config *Config, runner *pipeline.Runner, store *storage.Store, judge ai.Judge, logger *zap.Logger) *server.Server {
	cfg := config.Server
	if cfg.PublicDir == "" {
		cfg.PublicDir = store.Dir()
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = config.Search.MaxResults
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = config.Search.MaxAge
	}
	if cfg.Location == "" {
		cfg.Location = config.Search.Location
	}
	return server.New(cfg, runner, judge, logger)
}

func registerServer(lc fx.Lifecycle, srv *server.Server, config *Config, logger *zap.Logger, shutdowner fx.Shutdowner) {
	var telemetryShutdown func(context.Context) error

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			shutdown, err := telemetry.Init(ctx, app, version, config.Telemetry.Collector, logger)
			if err != nil {
				return err
			}
			telemetryShutdown = shutdown

			go func() {
				if err := srv.ListenAndServe(); err != nil {
					logger.Error("http server stopped", zap.Error(err))
					shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down the http server")
			err := srv.Shutdown(ctx)
			if telemetryShutdown != nil {
				if tErr := telemetryShutdown(ctx); tErr != nil {
					logger.Warn("flushing traces", zap.Error(tErr))
				}
			}
			return err
		},
	})
}

func serve() {
	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-analyst api", zap.String("version", version))

	fxApp := fx.New(
		fx.NopLogger,
		fx.StopTimeout(shutdownTimeout),
		fx.Supply(config, logger),
		fx.Provide(
			provideServices,
			provideJudge,
			provideServer,
		),
		fx.Invoke(registerServer),
	)

	if err := fxApp.Start(context.Background()); err != nil {
		logger.Fatal("starting the api", zap.Error(err))
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-c:
	case <-fxApp.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		logger.Fatal("stopping the api", zap.Error(err))
	}
}
