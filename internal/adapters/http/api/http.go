// Package api serves the prediction, health, stats and metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	service "github.com/okian/disasterscope/internal/app"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Predict(ctx context.Context, lat, lng float64) (service.Assessment, error)
	Stats() service.Stats
	Health() service.Health
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	corsOrigin string
	limiter    *rate.Limiter

	predictHandler *PredictHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	metricsHandler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigin sets Access-Control-Allow-Origin. The default is "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithRateLimit limits /predict to rps requests per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		corsOrigin:     "*",
		predictHandler: NewPredictHandler(deps),
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		metricsHandler: NewMetricsHandler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all API routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/predict", MetricsMiddleware(RateLimit(s.limiter, s.predictHandler.HandlePredict), "predict"))
	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", s.metricsHandler)
}

// Wrap applies the middleware every route shares: panic recovery, request
// IDs and CORS headers.
func (s *Server) Wrap(next http.Handler) http.Handler {
	return Recover(RequestID(CORS(s.corsOrigin, next)))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
