package api

import (
	"github.com/gorilla/mux"

	"github.com/okian/shelf/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRateLimit sets the per-client request rate and burst for /v1 routes.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = NewRateLimiter(rps, burst)
		}
	}
}

// WithTrustedProxies names reverse proxy addresses whose X-Forwarded-For
// header identifies the client for rate limiting.
func WithTrustedProxies(ips ...string) Option {
	return func(s *Server) {
		s.trustedProxies = append(s.trustedProxies, ips...)
	}
}

// WithAllowedOrigins restricts CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithDocs registers extra documentation routes, such as the OpenAPI document.
func WithDocs(register func(*mux.Router)) Option {
	return func(s *Server) {
		s.docs = register
	}
}
