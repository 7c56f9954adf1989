// Package server exposes the assistant over HTTP: multipart chat, chat
// history, model selection, health and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmichie/greenie/internal/config"
	"github.com/mmichie/greenie/pkg/metrics"
	"github.com/mmichie/greenie/pkg/store"
	"github.com/mmichie/greenie/pkg/vision"
)

//go:generate mockgen -destination=mocks/mock_server.go -package=mocks github.com/mmichie/greenie/internal/server Runner,ModelManager

// Runner answers one chat message
type Runner interface {
	Run(ctx context.Context, message string, image *vision.Image) string
}

// History persists conversations. *store.ChatStore satisfies it.
type History interface {
	Enabled() bool
	SaveChatSession(ctx context.Context, session store.Session) (store.Session, error)
	EnsureSession(ctx context.Context, id, userID string) error
	GetChatSessions(ctx context.Context, userID string) ([]store.Session, error)
	SaveChatMessage(ctx context.Context, msg store.Message) (store.Message, error)
	GetChatMessages(ctx context.Context, sessionID string) ([]store.Message, error)
	Health(ctx context.Context) error
}

// ModelManager reports and switches the active language model
type ModelManager interface {
	Model() string
	Available() bool
	SwitchModel(model string) bool
}

// Server represents the HTTP server
type Server struct {
	cfg        config.ServerConfig
	runner     Runner
	history    History
	models     ModelManager
	metrics    *metrics.Registry
	version    string
	logger     zerolog.Logger
	httpServer *http.Server
	startTime  time.Time
}

// Option configures a Server
type Option func(*Server)

// WithHistory enables the session endpoints and chat persistence
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithModelManager enables the model endpoints
func WithModelManager(m ModelManager) Option {
	return func(s *Server) { s.models = m }
}

// WithMetrics records request metrics and serves /metrics
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// WithLogger sets the request logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /health
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a new HTTP server
func New(cfg config.ServerConfig, runner Runner, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		runner:    runner,
		history:   store.Disabled(zerolog.Nop()),
		logger:    zerolog.Nop(),
		version:   "dev",
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s
}

// Handler returns the routed handler with CORS and request logging applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /api/chat", s.wrap(s.chatHandler))
	s.route(mux, "GET /api/sessions", s.wrap(s.listSessionsHandler))
	s.route(mux, "POST /api/sessions", s.wrap(s.createSessionHandler))
	s.route(mux, "GET /api/sessions/{id}/messages", s.wrap(s.messagesHandler))
	s.route(mux, "GET /api/model", s.wrap(s.getModelHandler))
	s.route(mux, "PUT /api/model", s.wrap(s.setModelHandler))
	s.route(mux, "GET /health", http.HandlerFunc(s.healthHandler))
	if s.metrics != nil {
		s.route(mux, "GET /metrics", s.metrics.Handler())
	}

	return s.cors(s.recoverer(mux))
}

// Start listens on the configured address until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Services  map[string]ServiceHealth `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

// ServiceHealth represents a service health status
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// healthHandler always answers 200: a missing model or database degrades
// answers but does not take the service down.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	services := map[string]ServiceHealth{}
	status := "healthy"

	if s.models != nil {
		model := ServiceHealth{Healthy: s.models.Available(), Message: s.models.Model()}
		if !model.Healthy {
			status = "degraded"
		}
		services["model"] = model
	}

	if s.history.Enabled() {
		db := ServiceHealth{Healthy: true}
		if err := s.history.Health(r.Context()); err != nil {
			db = ServiceHealth{Healthy: false, Message: err.Error()}
			status = "degraded"
		}
		services["database"] = db
	} else {
		services["database"] = ServiceHealth{Healthy: false, Message: "not configured"}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Services:  services,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
