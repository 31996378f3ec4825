// Package server provides the HTTP API over the trade book.
package server

import (
	"context"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradelog/tradebook"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Service        *tradebook.Service
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
	// ScreenshotDir, when set, is served under /screenshots/.
	ScreenshotDir string
	// MaxUploadBytes caps a multipart trade submission.
	MaxUploadBytes int64
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	svc       *tradebook.Service
	validate  *validator.Validate
	maxUpload int64
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		svc:       cfg.Service,
		validate:  newValidator(),
		maxUpload: cfg.MaxUploadBytes,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 20 << 20
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	s.setupMiddleware(timeout, cfg.CORSOrigins)
	s.setupRoutes(cfg.ScreenshotDir)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupMiddleware(timeout time.Duration, origins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(timeout))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// filesOnly hides directories so the screenshot store is never listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

func (s *Server) setupRoutes(screenshotDir string) {
	s.router.Get("/health", s.handleHealth)

	if screenshotDir != "" {
		fs := http.StripPrefix("/screenshots/", http.FileServer(filesOnly{http.Dir(screenshotDir)}))
		s.router.Handle("/screenshots/*", fs)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/instruments", s.handleInstruments)
		r.Post("/calculate", s.handleCalculate)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/accounts", s.handleAccounts)

			r.Route("/accounts/{accountID}", func(r chi.Router) {
				r.Get("/trades", s.handleListTrades)
				r.Post("/trades", s.handleCreateTrade)
				r.Get("/trades/export.csv", s.handleExportCSV)
				r.Get("/trades/{tradeID}", s.handleGetTrade)
				r.Put("/trades/{tradeID}", s.handleUpdateTrade)
				r.Delete("/trades/{tradeID}", s.handleDeleteTrade)

				r.Get("/stats/days", s.handleDays)
				r.Get("/stats/month/{year}/{month}", s.handleMonth)
				r.Get("/stats/year/{year}", s.handleYear)
				r.Get("/stats/summary", s.handleSummary)
				r.Get("/stats/equity", s.handleEquity)
				r.Get("/stats/months", s.handleMonths)
			})
		})
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// newValidator reports json field names in validation errors.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
