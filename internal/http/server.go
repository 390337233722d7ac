// Package http exposes the JSON API: movement CRUD, user administration,
// reports and the CSV export, all behind bearer-token authentication.
package http

import (
	"context"
	"net/http"
	"sync"

	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
)

type Server struct {
	http.Server

	jwtSecret   []byte
	authService *services.AuthService
	movements   *services.MovementService
	users       *services.UserService
	reports     *services.ReportService

	resolver     *security.Resolver
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Deps carries everything the server needs; all fields are required except
// the rate limit config, which falls back to defaults.
type Deps struct {
	JWTSecret   []byte
	AuthService *services.AuthService
	Movements   *services.MovementService
	Users       *services.UserService
	Reports     *services.ReportService

	RateLimit *ratelimit.Config
}

func NewServer(addr string, deps Deps) *Server {
	rlConfig := ratelimit.DefaultConfig()
	if deps.RateLimit != nil {
		rlConfig = *deps.RateLimit
	}

	s := &Server{
		jwtSecret:   deps.JWTSecret,
		authService: deps.AuthService,
		movements:   deps.Movements,
		users:       deps.Users,
		reports:     deps.Reports,
		resolver:    security.NewResolver(),
		limiter:     ratelimit.NewLimiter(rlConfig),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Reads are open to any authenticated caller (non-admins see only
	// their own movements); writes and the admin surface require ADMIN.
	mux.HandleFunc("GET /api/movements", s.withAuth(s.handleListMovements))
	mux.HandleFunc("POST /api/movements", s.withAdmin(s.handleCreateMovement))
	mux.HandleFunc("GET /api/movements/{id}", s.withAuth(s.handleGetMovement))
	mux.HandleFunc("PUT /api/movements/{id}", s.withAdmin(s.handleUpdateMovement))
	mux.HandleFunc("DELETE /api/movements/{id}", s.withAdmin(s.handleDeleteMovement))
	mux.HandleFunc("GET /api/balance", s.withAuth(s.handleBalance))

	mux.HandleFunc("GET /api/users", s.withAdmin(s.handleListUsers))
	mux.HandleFunc("GET /api/users/stats", s.withAdmin(s.handleUserStats))
	mux.HandleFunc("GET /api/users/{id}", s.withAdmin(s.handleGetUser))
	mux.HandleFunc("PUT /api/users/{id}", s.withAdmin(s.handleUpdateUser))

	mux.HandleFunc("GET /api/reports", s.withAdmin(s.handleReports))
	mux.HandleFunc("GET /api/reports/csv", s.withAdmin(s.handleExportCSV))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracing := trace.NewMiddleware(s.resolver.ExtractClientIP)
	limited := s.limiter.Middleware(s.resolver.ExtractClientIP, handleRateLimited)(mux)

	// Only writes are rate limited; reads go straight through.
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			mux.ServeHTTP(w, r)
		}
	})

	s.Server = http.Server{
		Addr:    addr,
		Handler: headers.Middleware(tracing.Middleware(root)),
	}
	return s
}

// Handler returns the fully wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.Server.Handler }

// Shutdown stops the HTTP server and the rate limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	respondError(w, http.StatusTooManyRequests, "Too many requests", "Rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
