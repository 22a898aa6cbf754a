package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/deviceos/pkgmap/internal/api/http"
	"github.com/deviceos/pkgmap/internal/api/middleware"
	"github.com/deviceos/pkgmap/internal/codec"
	"github.com/deviceos/pkgmap/internal/companion"
	"github.com/deviceos/pkgmap/internal/domain/uidmap"
	"github.com/deviceos/pkgmap/internal/infrastructure/config"
	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
	"github.com/deviceos/pkgmap/internal/infrastructure/monitoring"
	"github.com/deviceos/pkgmap/internal/ws"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	tracker *uidmap.Tracker
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing pkgmap server",
		zap.String("port", cfg.Server.Port),
		zap.Uint64("history_max_bytes", cfg.History.MaxBytes),
		zap.Bool("snapshot_compress", cfg.History.Compress),
	)

	metrics := monitoring.NewMetrics()
	snapshotCodec := codec.NewSnapshotCodec(cfg.History.Compress)

	tracker := uidmap.NewTracker(snapshotCodec, cfg.History.MaxBytes).
		WithMetrics(metrics).
		WithLogger(logger.Named("uidmap"))

	if cfg.Companion.Enabled && cfg.Companion.Address != "" {
		trigger := companion.New(cfg.Companion.Address, logger.Named("companion"))
		tracker.WithCompanion(trigger)
		logger.Info("Companion snapshot trigger enabled",
			zap.String("addr", cfg.Companion.Address))
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	handlers := apihttp.NewHandlers(tracker, logger.Named("api"))
	wsHandler := ws.NewHandler(tracker, logger.Named("ws"), metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live uid map
	router.GET("/v1/uidmap", handlers.ListEntries)
	router.GET("/v1/uidmap/dump", handlers.DumpEntries)
	router.POST("/v1/uidmap/replace", handlers.ReplaceAll)
	router.POST("/v1/uidmap/apps", handlers.UpsertApp)
	router.DELETE("/v1/uidmap/apps", handlers.RemoveApp)
	router.GET("/v1/uidmap/apps", handlers.AppNames)
	router.GET("/v1/uidmap/apps/version", handlers.AppVersion)
	router.GET("/v1/uidmap/uids", handlers.UidsForPackage)

	// Consumers and history
	router.POST("/v1/consumers", handlers.RegisterConsumer)
	router.DELETE("/v1/consumers/:key", handlers.DeregisterConsumer)
	router.POST("/v1/consumers/:key/drain", handlers.Drain)
	router.DELETE("/v1/history", handlers.ClearHistory)

	// Isolated uids
	router.POST("/v1/isolated", handlers.AssignIsolated)
	router.DELETE("/v1/isolated", handlers.ReleaseIsolated)
	router.GET("/v1/isolated/resolve", handlers.ResolveUid)

	// Event stream
	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		router:  router,
		tracker: tracker,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Tracker exposes the uid map tracker (used by tests and embedding callers).
func (s *Server) Tracker() *uidmap.Tracker {
	return s.tracker
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting pkgmap server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s.httpSrv.ListenAndServe()
}

// Close shuts the server down gracefully.
func (s *Server) Close() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("Server stopped")
	return nil
}
