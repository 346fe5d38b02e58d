package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/reader/internal/api"
	"github.com/jackzampolin/reader/internal/books"
	"github.com/jackzampolin/reader/internal/config"
	"github.com/jackzampolin/reader/internal/defra"
	"github.com/jackzampolin/reader/internal/home"
	"github.com/jackzampolin/reader/internal/jobs"
	"github.com/jackzampolin/reader/internal/metrics"
	"github.com/jackzampolin/reader/internal/pagecache"
	"github.com/jackzampolin/reader/internal/progress"
	"github.com/jackzampolin/reader/internal/reader"
	"github.com/jackzampolin/reader/internal/schema"
	"github.com/jackzampolin/reader/internal/server/endpoints"
	"github.com/jackzampolin/reader/internal/svcctx"
)

// Server is the main reader HTTP server.
// Unless it runs in memory mode or against an external DefraDB, it manages
// the DefraDB container lifecycle, starting it on server start and stopping
// it on shutdown.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraClient  *defra.Client
	defraSink    *defra.Sink
	pool         *jobs.CPUWorkerPool
	stopPool     context.CancelFunc
	poolDone     chan struct{}
	cfg          Config
	logger       *slog.Logger

	// services holds all core services for context enrichment; nil until
	// Init completes.
	services atomic.Pointer[svcctx.Services]

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the reader home directory holding uploaded books
	Home *home.Dir
	// DefraConfig holds DefraDB container settings
	DefraConfig defra.DockerConfig
	// DefraURL points at an already running DefraDB; no container is managed
	DefraURL string
	// Memory keeps books, pages and progress in process memory
	Memory bool
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// LogLevel is adjusted when log_level changes in the config file
	LogLevel *slog.LevelVar
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
	}

	if !cfg.Memory && cfg.DefraURL == "" {
		if cfg.DefraConfig.DataPath == "" {
			cfg.DefraConfig.DataPath = cfg.Home.DefraPath()
		}
		m, err := defra.NewDockerManager(cfg.DefraConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create defra manager: %w", err)
		}
		s.defraManager = m
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{DefraManager: s.defraManager}) {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 5 * time.Minute, // archive uploads
		// A first read paginates the whole book before responding.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Init connects the stores, starts the extraction pool and makes the
// services available to handlers. Start calls it; tests call it directly
// and drive Handler.
func (s *Server) Init(ctx context.Context) error {
	appCfg := config.DefaultConfig()
	if s.cfg.ConfigManager != nil {
		appCfg = s.cfg.ConfigManager.Get()
	}
	if err := s.cfg.Home.EnsureExists(); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	var (
		pages     pagecache.Store
		bookStore books.Store
		progStore progress.Store
		recorder  reader.Recorder
		query     *metrics.Query
	)

	if s.cfg.Memory {
		s.logger.Info("using in-memory stores; nothing survives a restart")
		pages = pagecache.NewMemoryStore()
		bookStore = books.NewMemoryStore()
		progStore = progress.NewMemoryStore()
	} else {
		client, err := s.connectDefra(ctx)
		if err != nil {
			return err
		}
		s.defraClient = client

		s.defraSink = defra.NewSink(defra.SinkConfig{Client: client, Logger: s.logger})
		s.defraSink.Start(context.Background())

		pages = pagecache.NewDefraStore(client, s.logger)
		bookStore = books.NewDefraStore(client)
		progStore = progress.NewDefraStore(client, s.defraSink)
		recorder = metrics.NewRecorder(s.defraSink)
		query = metrics.NewQuery(client)
	}

	s.pool = jobs.NewCPUWorkerPool(jobs.CPUWorkerPoolConfig{
		Name:        "extract",
		Logger:      s.logger,
		WorkerCount: appCfg.Pagination.Workers,
		QueueSize:   appCfg.Pagination.QueueSize,
	})
	poolCtx, stopPool := context.WithCancel(context.Background())
	s.stopPool = stopPool
	s.poolDone = make(chan struct{})
	go func() {
		defer close(s.poolDone)
		s.pool.Start(poolCtx)
	}()

	coordinator := reader.NewCoordinator(reader.Config{
		Pages:         pages,
		Books:         bookStore,
		Pool:          s.pool,
		Metrics:       recorder,
		Logger:        s.logger,
		BlocksPerPage: appCfg.Pagination.BlocksPerPage,
		AssetBaseURL:  appCfg.Pagination.AssetBaseURL,
		MaxEntryBytes: appCfg.Pagination.MaxEntryBytes,
	})

	if s.cfg.ConfigManager != nil {
		s.cfg.ConfigManager.OnChange(func(c *config.Config) {
			coordinator.SetBlocksPerPage(c.Pagination.BlocksPerPage)
			if s.cfg.LogLevel != nil {
				s.cfg.LogLevel.Set(c.SlogLevel())
			}
			s.logger.Info("config reloaded",
				"blocks_per_page", coordinator.BlocksPerPage(),
				"log_level", c.LogLevel)
		})
	}

	s.services.Store(&svcctx.Services{
		DefraClient:  s.defraClient,
		DefraSink:    s.defraSink,
		Library:      books.NewLibrary(s.cfg.Home, bookStore, s.logger),
		Coordinator:  coordinator,
		Progress:     progStore,
		Pool:         s.pool,
		Config:       s.cfg.ConfigManager,
		MetricsQuery: query,
		Logger:       s.logger,
		Home:         s.cfg.Home,
	})
	return nil
}

// connectDefra starts the managed container, or waits for the external
// instance, then applies the schemas.
func (s *Server) connectDefra(ctx context.Context) (*defra.Client, error) {
	var client *defra.Client
	if s.defraManager != nil {
		if err := s.defraManager.ValidateExisting(ctx); err != nil {
			return nil, fmt.Errorf("existing DefraDB container incompatible: %w", err)
		}
		s.logger.Info("starting DefraDB")
		if err := s.defraManager.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start DefraDB: %w", err)
		}
		client = defra.NewClient(s.defraManager.URL())
	} else {
		client = defra.NewClient(s.cfg.DefraURL)
		if err := client.WaitHealthy(ctx, 30*time.Second); err != nil {
			return nil, fmt.Errorf("DefraDB at %s not reachable: %w", s.cfg.DefraURL, err)
		}
	}

	if err := client.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", client.URL())

	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, client, s.logger); err != nil {
		return nil, fmt.Errorf("schema initialization failed: %w", err)
	}
	return client, nil
}

// Start initializes the server and serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.Init(ctx); err != nil {
		_ = s.shutdown()
		return err
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// Close releases everything Init started. It is for callers that use Init
// without Start.
func (s *Server) Close() error {
	return s.shutdown()
}

// shutdown stops HTTP, then the pool, then the sink and finally DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.stopPool != nil {
		s.stopPool()
		select {
		case <-s.poolDone:
		case <-shutdownCtx.Done():
			s.logger.Warn("extraction pool did not stop in time")
		}
	}

	if s.defraSink != nil {
		s.defraSink.Stop()
	}

	if s.defraManager != nil {
		s.logger.Info("stopping DefraDB")
		if err := s.defraManager.Stop(shutdownCtx); err != nil {
			s.logger.Error("DefraDB stop error", "error", err)
		}
		if err := s.defraManager.Close(); err != nil {
			s.logger.Error("DefraDB manager close error", "error", err)
		}
	}

	s.services.Store(nil)
	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Services returns the initialized services, or nil before Init.
func (s *Server) Services() *svcctx.Services {
	return s.services.Load()
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the HTTP handler with service injection applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Endpoints returns the registered endpoints, for building CLI commands.
func (s *Server) Endpoints() []api.Endpoint {
	return s.endpointRegistry.Endpoints()
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if services := s.services.Load(); services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until Init has completed.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services.Load() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "5")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
