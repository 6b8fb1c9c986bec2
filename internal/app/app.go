// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/yt2blog/internal/api"
	"github.com/Corphon/yt2blog/internal/article"
	"github.com/Corphon/yt2blog/internal/audio"
	"github.com/Corphon/yt2blog/internal/blogger"
	"github.com/Corphon/yt2blog/internal/config"
	"github.com/Corphon/yt2blog/internal/metrics"
	"github.com/Corphon/yt2blog/internal/services"
	"github.com/Corphon/yt2blog/internal/storage"
	"github.com/Corphon/yt2blog/internal/stt"
	"github.com/Corphon/yt2blog/internal/transcript"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"

	// completion providers register themselves
	_ "github.com/Corphon/yt2blog/internal/llm/providers/anthropic"
	_ "github.com/Corphon/yt2blog/internal/llm/providers/google"
	_ "github.com/Corphon/yt2blog/internal/llm/providers/openai"
)

const (
	shutdownTimeout = 30 * time.Second

	progressCleanupInterval = 5 * time.Minute
	progressMaxAge          = 30 * time.Minute
	limiterCleanupInterval  = 10 * time.Minute
)

// httpServer is the part of *http.Server the app needs.
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App owns every long lived component.
type App struct {
	config    *config.Config
	logger    *utils.Logger
	metrics   *metrics.Metrics
	store     storage.ArticleStore
	progress  *services.ProgressService
	pipeline  *services.PipelineService
	generator *article.Generator
	limiter   *api.RateLimiter
	router    http.Handler
	server    httpServer
	stopChan  chan os.Signal
}

// New builds the application from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning, nil)
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		metrics:  metrics.New(),
		progress: services.NewProgressService(),
		stopChan: make(chan os.Signal, 1),
	}

	a.store, err = storage.NewArticleStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}

	if err := a.initServices(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// initLogger logs to stdout and to a dated file in cfg.LogDir.
func initLogger(cfg *config.Config) (*utils.Logger, error) {
	logger := utils.NewLogger(os.Stdout, utils.ParseLogLevel(cfg.LogLevel))
	if cfg.LogDir == "" {
		return logger, nil
	}

	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("yt2blog_%s.log", time.Now().Format("2006-01-02")))
	if err := logger.AddLogFile(logFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// initServices wires the pipeline, from the caption client up to the router.
func (a *App) initServices() error {
	cfg := a.config

	captions := youtube.NewCaptionClient(a.logger)
	downloader := audio.NewYTDLPDownloader(cfg, a.logger)
	transcriber := stt.NewClient(cfg.STT, a.logger, stt.WithPollObserver(func(jobID, status string, attempt int) {
		a.metrics.RecordSTTPoll(status)
	}))
	resolver := transcript.NewResolver(cfg, captions, downloader, transcriber, a.logger)

	a.generator = article.NewGenerator(cfg, a.logger)
	publisher := blogger.NewClient(cfg.Blogger, a.logger)

	a.pipeline = services.NewPipelineService(resolver, a.generator, publisher, a.store, a.metrics, a.logger)

	if cfg.RateLimitPerMinute > 0 {
		a.limiter = api.NewRateLimiter(cfg.RateLimitPerMinute)
	}

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(cfg, a.pipeline, a.progress, a.generator, a.logger)
	router, err := api.SetupRouter(handler, a.metrics, a.limiter, a.logger)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}
	a.router = router
	return nil
}

func (a *App) Config() *config.Config { return a.config }

func (a *App) Logger() *utils.Logger { return a.logger }

func (a *App) Pipeline() *services.PipelineService { return a.pipeline }

func (a *App) Router() http.Handler { return a.router }

func (a *App) IsDebugMode() bool {
	return a.config != nil && a.config.DebugMode
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	if a.server == nil {
		a.server = &http.Server{
			Addr:    ":" + a.config.Port,
			Handler: a.router,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startBackground(ctx)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", map[string]interface{}{"port": a.config.Port})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-a.stopChan:
		a.logger.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	a.logger.Info("server stopped", nil)
	return nil
}

// startBackground drops stale progress trackers and idle rate limit entries.
func (a *App) startBackground(ctx context.Context) {
	a.progress.StartCleanup(ctx, progressCleanupInterval, progressMaxAge)

	if a.limiter == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.limiter.Cleanup()
			}
		}
	}()
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
	}
	return errors.Join(errs...)
}
