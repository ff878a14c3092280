package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/psantana5/timekeeper/pkg/auth"
	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/middleware"
	"github.com/psantana5/timekeeper/pkg/ratelimit"
	"github.com/psantana5/timekeeper/pkg/tracing"
)

// RouterOptions selects the middleware wrapped around the handler.
// Nil fields are skipped.
type RouterOptions struct {
	Logger        *logging.Logger
	Tracing       *tracing.Provider
	Limiter       *ratelimit.Limiter
	Authenticator *auth.Authenticator
	// Metrics is served on MetricsPath when set
	Metrics     http.Handler
	MetricsPath string
}

// NewRouter builds the router serving h. Middleware runs in the order
// tracing, request logging, rate limiting, authentication.
func NewRouter(h *Handler, opts RouterOptions) *mux.Router {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	r := mux.NewRouter()

	if opts.Tracing != nil {
		r.Use(tracing.HTTPMiddleware(opts.Tracing))
	}
	r.Use(middleware.RequestLogger(logger))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware(ratelimit.IPKeyFunc))
	}

	publicPaths := []string{"/health"}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, opts.Metrics).Methods("GET")
		publicPaths = append(publicPaths, path)
	}
	if opts.Authenticator != nil {
		r.Use(middleware.APIKeyAuth(opts.Authenticator, logger, publicPaths...))
	}

	h.RegisterRoutes(r)
	return r
}
