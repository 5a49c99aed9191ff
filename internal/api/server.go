// Package api exposes the workout engine as a JSON HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/identity"
	"github.com/abhisek/drillz/internal/metrics"
	"github.com/abhisek/drillz/internal/topics"
	"github.com/abhisek/drillz/internal/workout"
)

// TopicLister lists available topics.
type TopicLister interface {
	Topics(ctx context.Context) ([]topics.Topic, error)
}

// Options configures a Server. Service, Topics, and Tokens are required.
type Options struct {
	Service *workout.Service
	Topics  TopicLister
	Tokens  *identity.JWT
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// SaveTimeout bounds how long a request waits for its save.
	SaveTimeout time.Duration
}

// Server handles API requests. The workout service must resolve users
// with identity.Context.
type Server struct {
	svc         *workout.Service
	topics      TopicLister
	tokens      *identity.JWT
	metrics     *metrics.Metrics
	logger      *zap.Logger
	validate    *validator.Validate
	saveTimeout time.Duration
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		svc:         opts.Service,
		topics:      opts.Topics,
		tokens:      opts.Tokens,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		saveTimeout: opts.SaveTimeout,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.saveTimeout <= 0 {
		s.saveTimeout = 5 * time.Second
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/topics", s.listTopics)
		r.Route("/topics/{topicID}", func(r chi.Router) {
			r.Get("/history", s.history)
			r.Route("/workout", func(r chi.Router) {
				r.Get("/", s.show)
				r.Post("/start", s.start)
				r.Post("/select", s.selectAnswer)
				r.Post("/confirm", s.confirm)
				r.Post("/finish", s.finish)
				r.Post("/restart", s.restart)
			})
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
