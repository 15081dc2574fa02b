// Package api serves the configuration web page and the HTTP API of the node.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/lightnode/internal/api/models"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/node"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/settings"
	"github.com/smazurov/lightnode/internal/updater"
	"github.com/smazurov/lightnode/internal/version"
	"github.com/smazurov/lightnode/ui"
)

// Node is the part of the main loop the API talks to. Mutations are queued;
// the loop applies them on its own goroutine.
type Node interface {
	Snapshot() node.Snapshot
	UpdateSettings(ctx context.Context, source string, mutate func(*settings.NetworkConfig)) (settings.NetworkConfig, error)
	RequestTestPattern(color pixel.RGB, name string) error
}

// Scanner lists visible Wi-Fi networks. Scan may block.
type Scanner interface {
	Scan() ([]netsup.Network, error)
}

// SystemdManager controls the network service unit.
type SystemdManager interface {
	GetServiceStatus(ctx context.Context, name string) (string, error)
	RestartService(ctx context.Context, name string) error
}

// StatusLED is the status LED owner.
type StatusLED interface {
	Identify(d time.Duration) error
	Status() led.Status
}

// RestartNotifier reports a deliberate restart to the service manager.
type RestartNotifier interface {
	Status(text string)
}

// Server represents the Huma v2 API server
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	eventBus   *events.Bus
	logger     *slog.Logger
}

// Options wires the server to the rest of the node. Node, Store and
// EventBus are required; the others switch their routes off when nil.
type Options struct {
	Node              Node
	Store             settings.Store
	EventBus          *events.Bus
	Scanner           Scanner
	UpdateService     updater.Service
	SystemdManager    SystemdManager
	NetworkService    string // unit restarted by /api/system/network/restart
	StatusLED         StatusLED
	Notifier          RestartNotifier
	CORSOrigin        string       // Access-Control-Allow-Origin, "*" when empty
	PrometheusHandler http.Handler // Optional Prometheus metrics handler
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := NewCORSConfig(opts.CORSOrigin)
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("LightNode API", "1.0.0")
	config.Info.Description = "Configuration and status API for an Art-Net LED strip node"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		options:  opts,
		eventBus: opts.EventBus,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	} else {
		server.logger.Warn("Web page not available", "error", err)
	}

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start listens on addr and blocks until the server is stopped.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting LightNode API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Stop closes the listener and all connections, SSE streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		versionInfo := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   versionInfo.Version,
				GitCommit: versionInfo.GitCommit,
				BuildDate: versionInfo.BuildDate,
				BuildID:   versionInfo.BuildID,
				GoVersion: versionInfo.GoVersion,
				Compiler:  versionInfo.Compiler,
				Platform:  versionInfo.Platform,
			},
		}, nil
	})

	s.registerNodeRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
	s.registerMetricsRoutes()
	s.registerUpdateRoutes()
	s.registerSystemdRoutes()
	s.registerLEDRoutes()
}
