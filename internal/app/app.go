package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"NewsScanner/internal/config"
	"NewsScanner/internal/domain"
	"NewsScanner/internal/infrastructure/claim"
	"NewsScanner/internal/infrastructure/fetcher"
	"NewsScanner/internal/infrastructure/httpapi"
	"NewsScanner/internal/infrastructure/llm"
	"NewsScanner/internal/infrastructure/metrics"
	"NewsScanner/internal/infrastructure/parser"
	"NewsScanner/internal/infrastructure/scheduler"
	"NewsScanner/internal/infrastructure/storage"
	"NewsScanner/internal/infrastructure/telegram"
	"NewsScanner/internal/logging"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/relevance"
	"NewsScanner/internal/scanner"
	"NewsScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *zap.Logger
	db        *sql.DB
	redis     *redis.Client
	scheduler *usecase.Scheduler
	server    *httpapi.Server
}

// New builds the application graph. A missing reasoning-service credential
// is not fatal here: runs report it until the key is provided.
func New(cfg config.Config, baseLogger *zap.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	repo := storage.NewPostgresRepository(db)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promRegistry)

	pageFetcher := fetcher.NewHTTPFetcher(nil, cfg.Sources.UserAgent)
	registry := scanner.NewRegistry()
	registry.Register(parser.NewFeedScanner(pageFetcher))
	registry.Register(parser.NewPageScanner(pageFetcher))
	source := parser.NewStrategySource(registry, cfg.Sources,
		cfg.Pipeline.MaxCandidates, cfg.Pipeline.Concurrency, baseLogger.Named("source"))

	var summarizer ports.Summarizer
	if s, err := llm.NewSummarizer(cfg.LLM); err != nil {
		baseLogger.Warn("summarizer disabled", zap.Error(err))
	} else {
		summarizer = s
	}

	var (
		claims      ports.ClaimStore
		redisClient *redis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		claims = claim.NewRedisStore(redisClient, claimToken())
	}

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n != nil {
		notifier = n
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Fetcher:     pageFetcher,
		Repository:  repo,
		Summarizer:  summarizer,
		Claims:      claims,
		Notifier:    notifier,
		Metrics:     m,
		Heuristic:   relevance.NewHeuristic(cfg.Relevance.Keywords),
		Threshold:   cfg.Relevance.Threshold,
		Concurrency: cfg.Pipeline.Concurrency,
		ClaimTTL:    cfg.Redis.ClaimTTL,
		Logger:      baseLogger.Named("pipeline"),
	})

	gin.SetMode(httpapi.Mode(cfg.Logging.Level))

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(), baseLogger.Named("scheduler"))
	sched := usecase.NewScheduler(cron, pipeline, baseLogger.Named("scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		db:        db,
		redis:     redisClient,
		scheduler: sched,
		server:    httpapi.NewServer(cfg.HTTP.Addr, sched, promRegistry, baseLogger.Named("http")),
	}, nil
}

// Run applies pending migrations, starts the scheduler and serves HTTP until ctx is
// cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	if err := storage.Migrate(a.cfg.Database.DSN, a.logger.Named("migrate")); err != nil {
		return err
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := a.scheduler.Stop(context.Background()); err != nil {
			a.logger.Warn("scheduler stop", zap.Error(err))
		}
	}()

	return a.server.ListenAndServe(ctx)
}

// RunOnce executes a single pipeline run without the scheduler or listener.
func (a *Application) RunOnce(ctx context.Context) (domain.RunReport, error) {
	defer a.close()

	if err := storage.Migrate(a.cfg.Database.DSN, a.logger.Named("migrate")); err != nil {
		return domain.RunReport{}, err
	}
	return a.scheduler.RunOnce(ctx)
}

func (a *Application) close() {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("close resources", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func claimToken() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "newsscanner"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
