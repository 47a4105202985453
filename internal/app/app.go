package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/decoplanner/internal/controllers/restserver"
	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/pkg/config"
	"go.uber.org/zap"
)

// App runs the REST server
type App struct {
	restConfig  restserver.Config
	preferences config.PreferenceStore
	logger      *zap.SugaredLogger
}

// New creates a new application instance. preferences may be nil; when set,
// changes to it are applied to the server's base configuration.
func New(restConfig restserver.Config, preferences config.PreferenceStore, logger *zap.SugaredLogger) *App {
	return &App{
		restConfig:  restConfig,
		preferences: preferences,
		logger:      logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl, err := restserver.NewController(ctx, &wg, a.restConfig, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	if a.preferences != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.followPreferences(ctx, ctrl)
		}()
	}

	log.Info("application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// followPreferences reloads the base configuration whenever a preference
// changes.
func (a *App) followPreferences(ctx context.Context, ctrl *restserver.Controller) {
	for change := range a.preferences.Watch(ctx) {
		cfg, err := config.LoadConfiguration(ctx, a.preferences)
		if err != nil {
			a.logger.Warnw("could not reload preferences", "key", change.Key, "error", err)
			continue
		}
		if err := ctrl.SetBase(cfg); err != nil {
			a.logger.Warnw("ignoring invalid preferences", "key", change.Key, "error", err)
			continue
		}
		a.logger.Infow("base configuration updated", "key", change.Key, "value", change.Value)
	}
}
