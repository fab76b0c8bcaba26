package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tradesparky/pricewatch/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler is anything that can register routes on the router.
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router wires handlers, rate limiting and telemetry into one HTTP surface.
type Router struct {
	mux           *mux.Router
	limiter       *rate.Limiter
	logger        *zap.Logger
	requestsTotal metric.Int64Counter
}

func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		mux:     mux.NewRouter(),
		limiter: limiter,
		logger:  logger.Named("router"),
	}

	if tel != nil {
		counter, err := tel.Meter.Int64Counter("http_requests_total",
			metric.WithDescription("HTTP requests served, by method and status"))
		if err != nil {
			r.logger.Warn("failed to create request counter", zap.Error(err))
		} else {
			r.requestsTotal = counter
		}
		r.mux.Handle("/metrics", tel.Handler()).Methods("GET")
	}

	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	api := r.mux.PathPrefix("/").Subrouter()
	api.Use(r.rateLimitMiddleware, r.observeMiddleware)
	for _, h := range handlers {
		h.RegisterRoutes(api, logger)
	}

	return r
}

func (r *Router) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.limiter != nil && !r.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (r *Router) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		if r.requestsTotal != nil {
			r.requestsTotal.Add(req.Context(), 1, metric.WithAttributes(
				attribute.String("method", req.Method),
				attribute.Int("status", rec.status),
			))
		}
		r.logger.Debug("request served",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// CreateServer builds an http.Server with sane timeouts for this router.
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
