// Package server wires the scoresheets application together: database,
// sessions, mail, object storage, the HTTP site and the gRPC health endpoint.
// It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/cryptox"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/classify"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/config"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/health"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/mail"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/policy"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/services"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/session"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/storage"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/web"

	gs "github.com/dmitrijs2005/bjcp-scoresheets/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	mail   *mail.Service
	health *health.Service
	http   *http.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config
	rm := repomanager.NewPostgresRepositoryManager()

	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, app.db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	pol, err := policy.FromConfig(c)
	if err != nil {
		return fmt.Errorf("password policy: %w", err)
	}

	sender, err := mail.NewSender(c, app.logger)
	if err != nil {
		return fmt.Errorf("mail sender: %w", err)
	}
	app.mail = mail.NewService(sender, c.Domain, app.logger)

	checkers := []health.Checker{health.NewPostgresChecker(app.db)}

	var sessions session.Store
	switch c.SessionBackend {
	case session.BackendRedis:
		app.redis = redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		sessions = session.NewRedisStore(app.redis, c.SessionTTL)
		checkers = append(checkers, health.NewRedisChecker(app.redis))
	case "", session.BackendMemory:
		sessions = session.NewMemoryStore(c.SessionTTL)
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}

	app.health = health.NewService(checkers...)

	hasher := cryptox.NewBcryptHasher(c.BcryptCost)
	pdfs := storage.NewS3Store(c)

	h := web.NewHandler(web.Deps{
		Config:      c,
		Logger:      app.logger,
		Classifier:  classify.New(classify.DefaultRegistry, app.logger),
		Sessions:    sessions,
		Users:       services.NewUserService(app.db, rm, pol, hasher, app.mail, app.logger, c),
		Profiles:    services.NewProfileService(app.db, rm, pol, hasher, app.mail, app.logger, c),
		Flights:     services.NewFlightService(app.db, rm, app.logger),
		Scoresheets: services.NewScoresheetService(app.db, rm, pdfs, app.logger),
		Health:      app.health,
	})

	app.http = &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           web.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", app.http.Addr)
		if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return app.http.Shutdown(sctx)
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.health)
	return s.Run(ctx)
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or until one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startHTTPServer(gctx) })
	g.Go(func() error { return app.startGRPCServer(gctx) })

	err := g.Wait()
	app.close(ctx)
	return err
}

func (app *App) close(ctx context.Context) {
	if app.mail != nil {
		app.mail.Close()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
