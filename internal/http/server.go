// Package http exposes the finance API over JSON.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/pipeline"
)

// Authenticator registers and verifies password users.
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*core.User, error)
	Authenticate(ctx context.Context, email, password string) (*core.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Generate(user *core.User) (string, error)
}

type Scanner interface {
	ScanBill(ctx context.Context, in pipeline.ScanInput) (*pipeline.ScanResult, error)
}

type Advisor interface {
	GenerateRecommendation(ctx context.Context, token string, period core.Period) (*core.Recommendation, error)
}

// ExpenseService writes expenses and announces the changes.
type ExpenseService interface {
	CreateExpense(ctx context.Context, e *core.Expense) error
	GetExpense(ctx context.Context, userID, id string) (*core.Expense, error)
	UpdateExpense(ctx context.Context, e *core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

// Store covers the plain record operations the handlers need.
type Store interface {
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)

	CreateIncome(ctx context.Context, in *core.Income) error
	GetIncome(ctx context.Context, userID, id string) (*core.Income, error)
	ListIncomes(ctx context.Context, userID string) ([]core.Income, error)
	UpdateIncome(ctx context.Context, in *core.Income) error
	DeleteIncome(ctx context.Context, userID, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	ListByType(ctx context.Context, t core.CategoryType) ([]core.Category, error)
	CreateCategory(ctx context.Context, c *core.Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListRecommendations(ctx context.Context, userID string) ([]core.Recommendation, error)
	Budget(ctx context.Context, userID string, p core.Period) (core.Budget, error)

	Ping(ctx context.Context) error
}

// Deps wires the server to the rest of the application.
type Deps struct {
	Auth     Authenticator
	Tokens   TokenIssuer
	Users    pipeline.UserResolver
	Scanner  Scanner
	Advisor  Advisor
	Expenses ExpenseService
	Store    Store
	Metrics  *metrics.Metrics
	Logger   *log.Logger

	// Limiter throttles the two AI endpoints; nil disables it.
	Limiter        *ratelimit.Limiter
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 10 << 20

type Server struct {
	http.Server
	deps         Deps
	logger       *log.Logger
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger.WithComponent(log.ComponentHTTP),
		now:    time.Now,
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withRequestLogging)
	r.Use(withSecurityHeaders)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	// AI endpoints
	r.Group(func(r chi.Router) {
		if s.deps.Limiter != nil {
			r.Use(s.deps.Limiter.Middleware(extractClientIP))
		}
		r.With(s.requireUser).Post("/expenses/scan", s.handleScanBill)
		r.Get("/recommendations/generate", s.handleGenerateRecommendation)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Patch("/expenses/{id}", s.handleUpdateExpense)
		r.Delete("/expenses/{id}", s.handleDeleteExpense)

		r.Get("/incomes", s.handleListIncomes)
		r.Post("/incomes", s.handleCreateIncome)
		r.Get("/incomes/{id}", s.handleGetIncome)
		r.Patch("/incomes/{id}", s.handleUpdateIncome)
		r.Delete("/incomes/{id}", s.handleDeleteIncome)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Delete("/categories/{id}", s.handleDeleteCategory)

		r.Get("/recommendations", s.handleListRecommendations)
		r.Get("/budget", s.handleBudget)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, core.Fail(core.KindNotFound, "route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}

// Shutdown stops the limiter and then the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.deps.Limiter != nil {
			s.deps.Limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestLogging tags the request with an id and a scoped logger, then
// logs its completion.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.NewContext(r.Context(), logger)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r) {
			logger.WarnContext(ctx, "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, clientIP,
				log.FieldUserAgent, r.UserAgent())
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		log.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
