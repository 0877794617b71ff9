// Package http serves the JSON API and the server-rendered dashboard.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	appweb "fintrack/web"
)

// Options configures a Server.
type Options struct {
	Addr string

	// Accounts are the savings accounts shown on the dashboard even when
	// they have no transactions yet.
	Accounts core.Accounts

	// ListWindowMonths bounds the listing, the stats and the dashboard.
	ListWindowMonths int

	CORSOrigins []string

	// RateLimitPerMinute caps mutating requests per client IP; zero disables it.
	RateLimitPerMinute int

	Logger *log.Logger
}

type Server struct {
	http.Server
	logger    *log.Logger
	store     ports.TransactionStore
	templates *template.Template

	accounts     core.Accounts
	windowMonths int
	now          func() time.Time
	startedAt    time.Time

	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, store ports.TransactionStore) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	accounts := opts.Accounts
	if len(accounts) == 0 {
		accounts = core.DefaultAccounts
	}
	window := opts.ListWindowMonths
	if window <= 0 {
		window = 6
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	ips := security.NewClientIPResolver()
	s := &Server{
		logger:           logger.WithComponent(log.ComponentHTTP),
		store:            store,
		templates:        t,
		accounts:         accounts,
		windowMonths:     window,
		now:              time.Now,
		startedAt:        time.Now(),
		traceMiddleware:  trace.NewMiddleware(logger, ips.ClientIP),
		securityDetector: security.NewDetector(ips.ClientIP),
	}
	if opts.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	if s.rateLimiter != nil {
		handler = s.rateLimiter.Middleware(ips.ClientIP, ratelimit.MutatingRequests)(handler)
	}
	handler = splitHeaders(handler, opts.CORSOrigins)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = trace.Recover(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /api/expenses", s.handleListTransactions)
	mux.HandleFunc("POST /api/expenses", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/expenses/stats", s.handleStats)
	mux.HandleFunc("POST /api/expenses/check", s.handleCheck)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("POST /ui/transactions", s.handleFormCreate)
	mux.HandleFunc("POST /ui/transactions/{id}/delete", s.handleFormDelete)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return nil
}

// splitHeaders applies CORS and API security headers under /api/ and the
// document policy everywhere else.
func splitHeaders(next http.Handler, corsOrigins []string) http.Handler {
	api := security.CORS(corsOrigins)(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(next))
	pages := security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			api.ServeHTTP(w, r)
			return
		}
		pages.ServeHTTP(w, r)
	})
}

// window is the first date included in listings as of now.
func (s *Server) window() core.Date {
	return core.WindowStart(s.now(), s.windowMonths)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
