// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/okian/shelf/internal/adapters/leaderboard"
	"github.com/okian/shelf/internal/adapters/notify"
	"github.com/okian/shelf/internal/adapters/repository"
	service "github.com/okian/shelf/internal/app"
	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/model"
	"github.com/okian/shelf/internal/domain/stats"
	"github.com/okian/shelf/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecordActivity(ctx context.Context, a model.Activity) (service.Ack, error)

	Profile(ctx context.Context, userID string) (repository.Profile, error)
	Badges(ctx context.Context, userID string) ([]badge.Badge, error)
	Streak(ctx context.Context, userID string) (service.StreakView, error)
	Progress(ctx context.Context, userID string) ([]badge.MetricProgress, error)
	Subscribe(userID string) (<-chan notify.Event, func())

	Catalog() []catalog.Criterion
	Evaluate(snapshot stats.Snapshot, earned []catalog.Key) []catalog.Criterion

	Leaderboard(ctx context.Context, board string, limit int) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, board, userID string) (leaderboard.Entry, error)
	Leaderboards() []string
	MaxLeaderboardLimit() int

	Healthy(ctx context.Context) error
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	logger         logger.Logger
	limiter        *RateLimiter
	upgrader       websocket.Upgrader
	allowedOrigins []string
	trustedProxies []string
	docs           func(*mux.Router)
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		allowedOrigins: []string{"*"},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(defaultRateLimitRPS, defaultRateLimitBurst)
	}
	s.limiter.TrustProxies(s.trustedProxies...)
	return s
}

// Limiter returns the per-client limiter so callers can run its cleanup loop.
func (s *Server) Limiter() *RateLimiter {
	return s.limiter
}

// Router returns the routes without the outer CORS and recovery layers.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(MetricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if s.docs != nil {
		s.docs(r)
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(s.limiter.Middleware)

	v1.HandleFunc("/activities", s.handlePostActivity).Methods(http.MethodPost)

	v1.HandleFunc("/users/{userID}", s.handleGetProfile).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/badges", s.handleGetBadges).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/streak", s.handleGetStreak).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/progress", s.handleGetProgress).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/stream", s.handleStream).Methods(http.MethodGet)

	v1.HandleFunc("/catalog", s.handleGetCatalog).Methods(http.MethodGet)
	v1.HandleFunc("/evaluate", s.handlePostEvaluate).Methods(http.MethodPost)

	v1.HandleFunc("/leaderboards", s.handleListLeaderboards).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboards/{board}", s.handleGetLeaderboard).Methods(http.MethodGet)
	v1.HandleFunc("/leaderboards/{board}/users/{userID}", s.handleGetRank).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	return r
}

// Handler returns the full handler chain: CORS, panic recovery and routes.
func (s *Server) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.ExposedHeaders([]string{"Content-Length"}),
	)
	return cors(recovery(s.Router()))
}

// recoveryLogger feeds recovered panics into the structured logger.
type recoveryLogger struct {
	logger logger.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error(context.Background(), "recovered from panic", logger.String("panic", fmt.Sprint(v...)))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status and writes it, logging server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}
