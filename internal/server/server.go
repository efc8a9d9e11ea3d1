package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/metrics"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/storage"
)

const (
	DefaultAddr     = ":8000"
	DefaultLocation = "indonesia"
	// DefaultMaxUpload bounds a multipart request of /analyze_cv.
	DefaultMaxUpload = 20 << 20
)

// Config configures the HTTP service.
type Config struct {
	Addr         string        `mapstructure:"addr"`
	CORSOrigins  []string      `mapstructure:"cors-origins"`
	PublicDir    string        `mapstructure:"public-dir"`
	Location     string        `mapstructure:"location"`
	MaxResults   int           `mapstructure:"max-results"`
	MaxAge       time.Duration `mapstructure:"max-age"`
	MaxUpload    int64         `mapstructure:"max-upload"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.PublicDir == "" {
		c.PublicDir = storage.DefaultDir
	}
	if strings.TrimSpace(c.Location) == "" {
		c.Location = DefaultLocation
	}
	if c.MaxUpload <= 0 {
		c.MaxUpload = DefaultMaxUpload
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Minute
	}
	return c
}

// Analyst runs the background work started by the API.
type Analyst interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Outcome, error)
	ReviewCV(ctx context.Context, req pipeline.ReviewRequest) (*ai.CVReview, error)
}

// Server is the HTTP front of the analyst. Background tasks outlive their requests and are
// awaited on Shutdown.
type Server struct {
	cfg       Config
	analyst   Analyst
	judge     ai.Judge
	validator *Validator
	logger    *zap.Logger

	router chi.Router
	http   *http.Server

	tasks   sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(cfg Config, analyst Analyst, judge ai.Judge, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		analyst:   analyst,
		judge:     judge,
		validator: NewValidator(),
		logger:    logger,
		baseCtx:   ctx,
		cancel:    cancel,
	}

	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(s.logger))
	router.Use(middleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", metrics.Handler())

	router.Post("/generate_analysis", s.generateAnalysis)
	router.Post("/analyze_cv", s.analyzeCV)
	router.Post("/upskill-judge", s.upskillJudge)

	files := http.StripPrefix("/"+storage.DefaultPrefix+"/", http.FileServer(http.Dir(s.cfg.PublicDir)))
	router.Handle("/"+storage.DefaultPrefix+"/*", files)

	return router
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for background tasks until ctx is done.
// Tasks still running at that point are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("cancelling unfinished background tasks")
		s.cancel()
		<-done
	}
	s.cancel()

	return err
}

// Wait blocks until every background task has finished.
func (s *Server) Wait() {
	s.tasks.Wait()
}

// background runs fn detached from the request that started it.
func (s *Server) background(name string, fn func(ctx context.Context) error) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()

		started := time.Now()
		if err := fn(s.baseCtx); err != nil {
			s.logger.Error("background task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.logger.Info("background task finished", zap.String("task", name), zap.Duration("took", time.Since(started)))
	}()
}
