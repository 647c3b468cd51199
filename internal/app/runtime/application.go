package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	app "github.com/R3E-Network/grading_system/internal/app"
	"github.com/R3E-Network/grading_system/internal/app/httpapi"
	"github.com/R3E-Network/grading_system/internal/app/storage"
	"github.com/R3E-Network/grading_system/internal/app/storage/cache"
	"github.com/R3E-Network/grading_system/internal/app/storage/memory"
	"github.com/R3E-Network/grading_system/internal/app/storage/sqlstore"
	"github.com/R3E-Network/grading_system/internal/config"
	"github.com/R3E-Network/grading_system/internal/middleware"
	"github.com/R3E-Network/grading_system/internal/platform/database"
	"github.com/R3E-Network/grading_system/internal/platform/migrations"
	"github.com/R3E-Network/grading_system/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	handler    http.Handler
	httpServer *http.Server
	db         *sqlx.DB
	redis      *redis.Client
	auditSink  *httpapi.FileAuditSink
}

// NewApplication constructs the service from configuration.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	a := &Application{cfg: cfg, log: log}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application, err := app.New(app.Stores{Subjects: store}, log.Named("app"))
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	a.app = application

	opts := httpapi.Options{
		AppName:     cfg.Application.Name,
		CORSOrigins: cfg.Security.CORSOrigins,
		Logger:      log.Named("http"),

		TrustProxyHeaders: cfg.Security.TrustProxyHeaders,
	}
	if a.db != nil {
		opts.Pinger = a.db
	}
	if cfg.Security.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst, log.Named("ratelimit"))
		if err := application.Attach(limiter); err != nil {
			return nil, fmt.Errorf("attach rate limiter: %w", err)
		}
		opts.RateLimiter = limiter
	}

	sink, err := httpapi.NewFileAuditSink(cfg.Audit.File)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	a.auditSink = sink
	var auditSink httpapi.AuditSink
	if sink != nil {
		auditSink = sink
	}
	opts.Audit = httpapi.NewAuditLog(cfg.Audit.BufferSize, auditSink)

	a.handler = httpapi.NewHandler(application, opts)
	a.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ok = true
	return a, nil
}

// Handler exposes the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and releases resources.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := time.Duration(a.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}

	a.closeResources()
	return nil
}

func (a *Application) closeResources() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
		a.db = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
		a.redis = nil
	}
	if a.auditSink != nil {
		if err := a.auditSink.Close(); err != nil {
			a.log.WithError(err).Warn("error closing audit file")
		}
		a.auditSink = nil
	}
}

func (a *Application) buildStore(ctx context.Context) (storage.SubjectStore, error) {
	var store storage.SubjectStore

	switch a.cfg.Database.Driver {
	case config.DriverMemory, "":
		a.log.Warn("using in-memory subject store; data is lost on restart")
		store = memory.New()
	case config.DriverPostgres, config.DriverSQLite:
		db, err := openDatabase(ctx, a.cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		if a.cfg.Database.MigrateOnStart {
			if err := migrations.Up(a.cfg.Database.Driver, a.cfg.Database.DSN); err != nil {
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			a.log.WithField("driver", a.cfg.Database.Driver).Info("database migrations applied")
		}
		store = sqlstore.New(db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", a.cfg.Database.Driver)
	}

	if a.cfg.Cache.Enabled() {
		client := cache.NewClient(a.cfg.Cache.Addr, a.cfg.Cache.Password, a.cfg.Cache.DB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.log.WithError(err).WithField("addr", a.cfg.Cache.Addr).Warn("redis unreachable; subject cache disabled")
			_ = client.Close()
		} else {
			a.redis = client
			ttl := time.Duration(a.cfg.Cache.TTL) * time.Second
			store = cache.New(store, client, ttl, a.log.Named("subject-cache"))
		}
	}

	return store, nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return database.Open(ctx, cfg.Driver, cfg.DSN, database.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
	})
}
