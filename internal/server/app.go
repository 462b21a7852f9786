// Package server wires the admin gate together: configuration, the
// credential store pool, migrations, and the HTTP and gRPC listeners with
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/smartscan/admingate/internal/dbx"
	"github.com/smartscan/admingate/internal/logging"
	"github.com/smartscan/admingate/internal/server/auth"
	"github.com/smartscan/admingate/internal/server/config"
	"github.com/smartscan/admingate/internal/server/httpserver"
	"github.com/smartscan/admingate/internal/server/repositories/repomanager"
	"github.com/smartscan/admingate/internal/server/services"

	gs "github.com/smartscan/admingate/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = dbx.OpenPostgres

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpserver.Server
	grpc   *gs.GRPCServer
}

// NewApp opens the store, applies migrations when enabled and builds both
// listeners. Log lines go to w as JSON.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(w, c.LogLevel)

	if c.SecretKey == config.DefaultSecretKey {
		if c.IsProduction() {
			return nil, errors.New("refusing to start in production with the default JWT secret")
		}
		logger.Warn(ctx, "using the default JWT secret; set JWT_SECRET")
	}

	db, err := openDB(ctx, c.DSN(), dbx.PoolOptions{
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info(ctx, "migrations applied")
	}

	tokens := auth.NewTokenService(c, c.TokenValidityDuration)
	admins := services.NewAdminService(db, rm, tokens, logger)

	hs, err := httpserver.NewServer(c, admins, tokens, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   hs,
		grpc:   gs.NewGRPCServer(c.GRPCAddr, logger, db),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "shutdown signal received", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails.
// The first listener error stops the other one and is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.GRPCAddr, "env", app.config.Environment)

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		if err := fn(ctx); err != nil {
			app.logger.Error(ctx, "listener stopped", "listener", name, "error", err)
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", name, err)
			}
			mu.Unlock()
			cancelFunc()
		}
	}

	wg.Add(2)
	go run("http", app.http.Run)
	go run("grpc", app.grpc.Run)
	wg.Wait()

	app.logger.Info(context.Background(), "app stopped")
	return firstErr
}
