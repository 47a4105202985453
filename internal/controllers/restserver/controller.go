package restserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/decoplanner/internal/log"
	"github.com/chrissnell/decoplanner/internal/storage"
	"github.com/chrissnell/decoplanner/internal/storage/archive"
	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// archiveBackend names the archive in health reports
const archiveBackend = "archive"

// DefaultListenAddr is used when no listen address is configured
const DefaultListenAddr = "0.0.0.0:8080"

// PlanArchive stores computed plans. *archive.Store implements it.
type PlanArchive interface {
	Save(ctx context.Context, name string, plan *dive.Plan) (*archive.ArchivedPlan, error)
	Get(ctx context.Context, id uuid.UUID) (*archive.ArchivedPlan, *dive.Plan, error)
	List(ctx context.Context, limit int) ([]archive.ArchivedPlan, error)
}

// Config holds the REST server settings
type Config struct {
	ListenAddr string

	// Base is the configuration plan requests are applied on top of
	Base dive.Configuration

	// Archive is optional. Without it the /api/plans endpoints are not served.
	Archive PlanArchive
}

// Controller represents the REST server controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	Server   http.Server
	mu       sync.RWMutex
	base     dive.Configuration
	archive  PlanArchive
	health   *storage.HealthManager
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg Config, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base configuration: %w", err)
	}

	if cfg.ListenAddr == "" {
		logger.Infof("listen address not provided; defaulting to %s", DefaultListenAddr)
		cfg.ListenAddr = DefaultListenAddr
	}

	ctrl := &Controller{
		ctx:     ctx,
		wg:      wg,
		base:    cfg.Base,
		archive: cfg.Archive,
		health:  storage.NewHealthManager(),
		logger:  logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = cfg.ListenAddr
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// Base returns the configuration plan requests are applied on top of
func (c *Controller) Base() dive.Configuration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.base
}

// SetBase replaces the base configuration used by later requests
func (c *Controller) SetBase(cfg dive.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.base = cfg
	c.mu.Unlock()
	return nil
}

// Handler returns the router serving every endpoint
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController starts the REST server and stops it when the controller
// context is cancelled.
func (c *Controller) StartController() error {
	log.Infof("starting REST server on %s", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.Middleware)
	router.Use(handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(c.logger.Desugar())),
		handlers.PrintRecoveryStack(true),
	))

	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plan", c.handlers.CreatePlan).Methods(http.MethodPost)
	api.HandleFunc("/ndl", c.handlers.GetNDL).Methods(http.MethodGet)

	// The archive endpoints only exist when an archive is configured.
	if c.archive != nil {
		api.HandleFunc("/plans", c.handlers.ListPlans).Methods(http.MethodGet)
		api.HandleFunc("/plans/{id}", c.handlers.GetPlan).Methods(http.MethodGet)
	}

	return router
}
