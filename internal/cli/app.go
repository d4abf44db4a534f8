package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kodexArg/terminal-singleton/internal/config"
	"github.com/kodexArg/terminal-singleton/internal/logging"
	"github.com/kodexArg/terminal-singleton/internal/monitoring"
	"github.com/kodexArg/terminal-singleton/internal/providers/terminal"
	"github.com/kodexArg/terminal-singleton/internal/server"
	"github.com/kodexArg/terminal-singleton/internal/shell"
)

// App holds the wired components behind every command
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	Terminal *terminal.Terminal
	Provider *terminal.Provider
}

// NewApp builds the logger, metrics and terminal described by cfg.
// No shell is spawned until the first command.
func NewApp(cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.FromSettings(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	var metrics *monitoring.Metrics
	if cfg.Metrics.Enabled() {
		metrics = monitoring.NewMetrics()
	}

	registry := shell.NewRegistry(shellOptions(cfg.Shell, logger.Logger, metrics))
	term := terminal.New(registry, logger.Logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		Terminal: term,
		Provider: terminal.NewProvider(term, logger.Logger),
	}, nil
}

func shellOptions(cfg config.ShellConfig, logger *zap.Logger, metrics *monitoring.Metrics) shell.Options {
	return shell.Options{
		ShellPath:             cfg.Path,
		ShellArgs:             cfg.Args,
		Dir:                   cfg.Dir,
		Timeout:               cfg.Timeout(),
		SettleDelay:           cfg.SettleDelay,
		KillGrace:             cfg.KillGrace,
		LogLimit:              cfg.LogLimit,
		SpawnFailureThreshold: cfg.SpawnFailures,
		SpawnCooldown:         cfg.SpawnCooldown,
		SpawnRate:             cfg.SpawnRate,
		SpawnBurst:            cfg.SpawnBurst,
		Logger:                logger,
		Metrics:               metrics,
	}
}

// StartServer runs the metrics and health listener in the background when
// one is configured. The returned channel yields its exit error.
func (a *App) StartServer(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	if !a.Config.Metrics.Enabled() {
		close(errCh)
		return errCh
	}

	srv := server.NewServer(server.Config{
		Addr:        a.Config.Metrics.Addr,
		Development: a.Config.Logging.Development,
	}, a.Terminal, a.Provider, a.Metrics, a.Logger.Logger)

	go func() {
		defer close(errCh)
		if err := srv.Run(ctx); err != nil {
			a.Logger.Error("HTTP server failed", zap.Error(err))
			errCh <- err
		}
	}()
	return errCh
}

// Close terminates the shell and flushes logs
func (a *App) Close() {
	if err := a.Terminal.Close(); err != nil {
		a.Logger.Warn("Failed to close terminal", zap.Error(err))
	}
	a.Logger.Close()
}
