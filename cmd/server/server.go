package main

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Simplici0/costcalc/internal/config"
	"github.com/Simplici0/costcalc/internal/logging"
	"github.com/Simplici0/costcalc/internal/metrics"
	"github.com/Simplici0/costcalc/internal/money"
	"github.com/Simplici0/costcalc/internal/profile"
	"github.com/Simplici0/costcalc/internal/qr"
	"github.com/Simplici0/costcalc/internal/ratelimit"
)

//go:embed web
var webFS embed.FS

var layoutPages = []string{"home.html", "login.html", "admin_profile.html"}

type server struct {
	cfg       config.Config
	log       zerolog.Logger
	db        *sql.DB
	auth      *authService
	profiles  *profile.Store
	formatter *money.Formatter
	qrCache   *qr.Cache
	limiter   *ratelimit.Limiter
	pages     map[string]*template.Template
	now       func() time.Time
}

func newServer(cfg config.Config, logger zerolog.Logger, database *sql.DB) (*server, error) {
	formatter, err := money.NewFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("create currency formatter: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	qrCache, err := qr.NewCache(cfg.QRSize, cfg.QRCacheEntries)
	if err != nil {
		return nil, fmt.Errorf("create qr cache: %w", err)
	}

	return &server{
		cfg:       cfg,
		log:       logger,
		db:        database,
		auth:      newAuthService(database, cfg.SessionSecret, !cfg.IsDev()),
		profiles:  profile.NewStore(database),
		formatter: formatter,
		qrCache:   qrCache,
		limiter:   ratelimit.New(cfg.RateLimitRate, cfg.RateLimitCapacity, ratelimit.DefaultCost),
		pages:     pages,
		now:       time.Now,
	}, nil
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(layoutPages)+1)
	for _, page := range layoutPages {
		t, err := template.ParseFS(webFS, "web/templates/layout.html", "web/templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		pages[page] = t
	}

	t, err := template.ParseFS(webFS, "web/templates/print.html")
	if err != nil {
		return nil, fmt.Errorf("parse template print.html: %w", err)
	}
	pages["print.html"] = t
	return pages, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger(s.log))
	r.Use(metrics.Metrics)
	r.Use(middleware.Recoverer)
	r.Use(s.limiter.Middleware)

	static, _ := fs.Sub(webFS, "web/static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// An empty origin list would make cors allow every origin.
		if len(s.cfg.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.cfg.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         300,
			}))
		}
		r.Post("/calculate", s.handleCalculate)
		r.Get("/summary", s.handleSummary)
		r.Post("/summary", s.handleSummary)
	})

	r.Get("/qr.png", s.handleQRImage)
	r.Get("/qr/print", s.handleQRPrint)
	r.Get("/qr/print.pdf", s.handleQRPrintPDF)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)
	r.Post("/logout", s.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/admin/profile", s.handleAdminProfileForm)
		r.Post("/admin/profile", s.handleAdminProfileSubmit)
	})

	return r
}

// serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (s *server) serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopPruning := make(chan struct{})
	defer close(stopPruning)
	s.limiter.StartPruning(30*time.Minute, stopPruning)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", httpServer.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("graceful shutdown failed")
		if closeErr := httpServer.Close(); closeErr != nil {
			return fmt.Errorf("close server: %w", closeErr)
		}
	}
	s.log.Info().Msg("shutdown complete")
	return nil
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "db": "ok"}
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn().Err(err).Msg("health check: database unreachable")
		status["status"] = "degraded"
		status["db"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	s.renderTemplateStatus(w, http.StatusOK, page, data)
}

// renderTemplateStatus renders into a buffer first so a template error can
// still produce a clean 500.
func (s *server) renderTemplateStatus(w http.ResponseWriter, status int, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		http.Error(w, "unknown template", http.StatusInternalServerError)
		return
	}

	name := "layout"
	if page == "print.html" {
		name = "print.html"
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Error().Err(err).Str("template", page).Msg("render template")
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
