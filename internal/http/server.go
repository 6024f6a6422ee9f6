package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "salarydash/internal/log"
	"salarydash/internal/middleware/ratelimit"
	"salarydash/internal/middleware/security"
	"salarydash/internal/middleware/trace"
	"salarydash/internal/services"
)

// Pinger is checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes.
type Deps struct {
	Store      Pinger
	Users      *services.UserService
	Categories *services.CategoryService
	Earnings   *services.EarningService
	Expenses   *services.ExpenseService
	Dashboard  *services.DashboardService
	Logger     *applog.Logger
}

// Options configures the listener and the middleware chain.
type Options struct {
	Addr               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	RequestTimeout     time.Duration
}

// Server is the HTTP API server.
type Server struct {
	http.Server
	deps     Deps
	mux      *http.ServeMux
	limiter  *ratelimit.Limiter
	detector *security.Detector
	timeout  time.Duration
	started  time.Time
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = services.DefaultQueryTimeout
	}

	s := &Server{
		deps:     deps,
		mux:      http.NewServeMux(),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(),
		timeout:  opts.RequestTimeout,
		started:  time.Now(),
		now:      time.Now,
	}
	s.routes()

	tracer := trace.New(deps.Logger.WithComponent(applog.ComponentHTTP), s.detector.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})

	var handler http.Handler = http.HandlerFunc(s.dispatch)
	handler = s.withTimeout(handler)
	handler = skipProbes(limit, handler)
	handler = s.detector.Middleware(handler)
	handler = security.CORS(opts.CORSAllowedOrigins)(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Handler(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)
	s.mux.Handle("GET /metrics", s.metricsHandler())

	s.mux.HandleFunc("POST /users", s.handleCreateUser)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	s.mux.HandleFunc("GET /categories", s.handleListCategories)
	s.mux.HandleFunc("POST /categories", s.handleCreateCategory)

	s.mux.HandleFunc("POST /earnings", s.handleSaveEarning)
	s.mux.HandleFunc("GET /earnings/user/{id}", s.handleListEarnings)
	s.mux.HandleFunc("GET /earnings/latest/{id}", s.handleLatestEarning)
	s.mux.HandleFunc("DELETE /earnings/user/{id}", s.handleDeleteEarnings)

	s.mux.HandleFunc("POST /expenses", s.handleAddExpenses)
	s.mux.HandleFunc("POST /expenses/upload", s.handleUploadExpenses)
	s.mux.HandleFunc("GET /expenses/by-month", s.handleExpensesByMonth)

	s.mux.HandleFunc("GET /dashboard/summary/{user_id}", s.handleSummary)
	s.mux.HandleFunc("GET /dashboard/charts/{user_id}", s.handleCharts)
	s.mux.HandleFunc("GET /dashboard/export/{file}", s.handleExport)
}

// dispatch serves matched routes directly. Unmatched requests are run
// through the mux on a discarding writer so that its 404 or 405 decision,
// including the Allow header, is answered in the JSON envelope.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if _, pattern := s.mux.Handler(r); pattern != "" {
		trace.SetRoute(r.Context(), pattern)
		s.mux.ServeHTTP(w, r)
		return
	}

	rec := &discardWriter{header: make(http.Header), status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	for name, values := range rec.header {
		if name == "Content-Type" || name == "X-Content-Type-Options" {
			continue
		}
		w.Header()[name] = values
	}
	switch {
	case rec.status == http.StatusMethodNotAllowed:
		ErrorResponse(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	case rec.status >= 400:
		ErrorResponse(rec.status, http.StatusText(rec.status)).Write(w)
	default:
		w.WriteHeader(rec.status)
	}
}

type discardWriter struct {
	header http.Header
	status int
	wrote  bool
}

func (d *discardWriter) Header() http.Header { return d.header }

func (d *discardWriter) WriteHeader(code int) {
	if !d.wrote {
		d.status = code
		d.wrote = true
	}
}

func (d *discardWriter) Write(b []byte) (int, error) {
	d.wrote = true
	return len(b), nil
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// skipProbes applies mw to everything except the health, readiness and
// metrics endpoints.
func skipProbes(mw func(http.Handler) http.Handler, next http.Handler) http.Handler {
	limited := mw(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz", "/readyz", "/metrics":
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
