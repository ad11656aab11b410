// Package http exposes the Stammtisch collections as a JSON API. It is the
// surface the (out of scope) web UI talks to.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stammtisch/internal/middleware/ratelimit"
	"stammtisch/internal/middleware/security"
	"stammtisch/internal/services"
)

type Server struct {
	kasse   *services.KasseService
	limiter *ratelimit.Limiter
	router  chi.Router
}

// NewServer wires all routes onto a chi router.
func NewServer(kasse *services.KasseService) *Server {
	s := &Server{
		kasse:   kasse,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(clientIP))
	r.Use(actorContext)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/balance", s.handleBalance)
		r.Put("/config", s.handleSetConfig)

		r.Route("/members", func(r chi.Router) {
			r.Get("/", s.handleListMembers)
			r.Post("/", s.handleCreateMember)
			r.Get("/{id}", s.handleGetMember)
			r.Put("/{id}", s.handleUpdateMember)
			r.Put("/{id}/birthday", s.handleSetBirthday)
			r.Delete("/{id}", s.handleDeleteMember)
		})

		r.Route("/penalties", func(r chi.Router) {
			r.Get("/", s.handleListPenalties)
			r.Post("/", s.handleCreatePenalty)
			r.Put("/{id}", s.handleUpdatePenalty)
			r.Post("/{id}/pay", s.handlePayPenalty)
			r.Delete("/{id}", s.handleDeletePenalty)
		})

		r.Route("/contributions", func(r chi.Router) {
			r.Get("/", s.handleListContributions)
			r.Post("/", s.handleAddContribution)
			r.Delete("/{id}", s.handleDeleteContribution)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleListEvents)
			r.Post("/", s.handleCreateEvent)
			r.Put("/{id}", s.handleUpdateEvent)
			r.Delete("/{id}", s.handleDeleteEvent)
		})
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background goroutines owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}

type ctxKey int

const actorKey ctxKey = iota

// actorContext captures the acting member's id from the X-Member-ID header.
// The id is injected by the caller and attributed, not authenticated.
func actorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Member-ID"); id != "" {
			r = r.WithContext(context.WithValue(r.Context(), actorKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// ActorID returns the acting member id for the request, if any.
func ActorID(ctx context.Context) string {
	id, _ := ctx.Value(actorKey).(string)
	return id
}

// HTTPServer wraps the handler in an http.Server with the usual timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        s,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		switch {
		case ww.Status() >= 500:
			level = slog.LevelError
		case ww.Status() >= 400:
			level = slog.LevelWarn
		}
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if actor := ActorID(r.Context()); actor != "" {
			args = append(args, "actor", actor)
		}
		slog.Log(r.Context(), level, "HTTP request completed", args...)
	})
}
