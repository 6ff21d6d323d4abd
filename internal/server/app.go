// Package server initializes and runs the authentication server: storage
// backend, credential service, HTTP API, a background sweeper for expired
// refresh tokens, and graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dberzins/userauth/internal/logging"
	"github.com/dberzins/userauth/internal/server/auth"
	"github.com/dberzins/userauth/internal/server/config"
	"github.com/dberzins/userauth/internal/server/httpapi"
	"github.com/dberzins/userauth/internal/server/repositories/repomanager"
	"github.com/dberzins/userauth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repos       repomanager.Manager
	userService *services.UserService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			return nil, fmt.Errorf("sentry init error: %w", err)
		}
	}

	repos, err := repomanager.New(cfg.StorageBackend, cfg.DatabaseDSN, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := repos.Init(ctx); err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	codec, err := auth.NewCodec(
		[]byte(cfg.AccessSecret), []byte(cfg.RefreshSecret),
		cfg.AccessTokenValidityDuration, cfg.RefreshTokenValidityDuration,
		cfg.TokenIssuer, cfg.TokenAudience,
	)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	us, err := services.NewUserService(repos.Users(), repos.RefreshTokens(), codec, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	return &App{config: cfg, logger: logger, repos: repos, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runSweeper periodically removes expired ledger records so revoked and
// abandoned sessions do not accumulate forever.
func (app *App) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.SweepExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "sweep expired tokens", "error", err)
				continue
			}
			if n > 0 {
				app.logger.Info(ctx, "swept expired refresh tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"backend", app.config.StorageBackend, "address", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweeper(ctx)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}
	if app.config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}
