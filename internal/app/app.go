package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/data/db"
	apphttp "github.com/yungbote/neurobridge-certificates/internal/http"
	"github.com/yungbote/neurobridge-certificates/internal/observability"
	"github.com/yungbote/neurobridge-certificates/internal/platform/envutil"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	server   *apphttp.Server
	pg       *db.PostgresService
	shutdown func(context.Context) error
	cancel   context.CancelFunc
}

// NewLogger builds the process logger from LOG_MODE.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

// New connects to Postgres, migrates and wires the HTTP server.
func New(ctx context.Context) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := db.AutoMigrateAll(pg.DB()); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}

	a, err := NewWithDB(ctx, log, cfg, pg.DB())
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}
	a.pg = pg
	return a, nil
}

// NewWithDB wires everything on top of an already migrated database. The
// operator CLI uses it with SQLite.
func NewWithDB(ctx context.Context, log *logger.Logger, cfg Config, theDB *gorm.DB) (*App, error) {
	runCtx, cancel := context.WithCancel(ctx)

	shutdown := observability.InitOTel(runCtx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	reposet := wireRepos(theDB, log)
	clientset, err := wireClients(runCtx, log, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, metrics)
	if err != nil {
		clientset.Close()
		cancel()
		return nil, err
	}

	metrics.StartPostgresCollector(runCtx, log, theDB)
	if clientset.Redis != nil {
		metrics.StartRedisCollector(runCtx, log, clientset.Redis)
	}
	metrics.StartServer(runCtx, log, cfg.MetricsAddr)

	handlerset := wireHandlers(log, cfg, serviceset, metrics)
	middleware := wireMiddleware(log, cfg)

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clientset,
		Services: serviceset,
		Metrics:  metrics,
		server:   wireRouter(log, cfg, handlerset, middleware, metrics),
		shutdown: shutdown,
		cancel:   cancel,
	}, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return errors.New("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.server.Run(ctx, addr, a.Cfg.ShutdownGrace)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownGrace)
		if err := a.shutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.shutdown = nil
	}
	a.Clients.Close()
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
