package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"kbsearch/app/internal/kb"
)

// Options configures the HTTP server wiring.
type Options struct {
	KBService       kb.Service
	Database        *gorm.DB
	AnswerAvailable bool
	Logger          *logrus.Logger
	SentryHub       *sentry.Hub
	RateLimiter     RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the JSON transport layer via Huma.
type Server struct {
	api             huma.API
	mux             *stdhttp.ServeMux
	kb              kb.Service
	db              *gorm.DB
	answerAvailable bool
	logger          *logrus.Logger
	sentry          *sentry.Hub
	rateLimiter     *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.KBService == nil {
		return nil, eris.New("knowledge-base service is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Knowledge Base Search", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:             api,
		mux:             mux,
		kb:              opts.KBService,
		db:              opts.Database,
		answerAvailable: opts.AnswerAvailable,
		logger:          opts.Logger,
		sentry:          opts.SentryHub,
		rateLimiter:     NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL),
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerSearchRoute()
	s.registerAskRoute()
	s.registerIngestRoute()
	s.registerArticlesRoute()
	s.registerHealthRoute()
}
