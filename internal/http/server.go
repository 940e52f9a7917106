package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// TransactionStore is the persistence surface the handlers depend on.
type TransactionStore interface {
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	Replace(ctx context.Context, id string, t core.Transaction) (core.Transaction, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f core.Filter, page, limit int) ([]core.Transaction, error)
	Count(ctx context.Context, f core.Filter) (int64, error)
	Summary(ctx context.Context, f core.Filter) (core.Summary, error)
	Breakdown(ctx context.Context, f core.Filter) ([]core.KindBreakdown, error)
}

// EventPublisher emits change notifications after successful mutations.
// Publishing is best effort; a failure never fails the request.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, action, id string) error
}

type contextKey string

const requestIDKey contextKey = "request_id"

// Server serves the transaction REST API.
type Server struct {
	http.Server
	store          TransactionStore
	events         EventPublisher
	logger         *applog.Logger
	maxAmountCents int64
	allowedOrigins map[string]struct{}
}

// Options configures a Server beyond its store.
type Options struct {
	Addr           string
	Events         EventPublisher
	Logger         *applog.Logger
	MaxAmountCents int64
	AllowedOrigins []string
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(store TransactionStore, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.NewNop()
	}
	maxAmount := opts.MaxAmountCents
	if maxAmount <= 0 {
		maxAmount = core.DefaultMaxAmountCents
	}

	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:          store,
		events:         opts.Events,
		logger:         logger.WithComponent(applog.ComponentHTTP),
		maxAmountCents: maxAmount,
		allowedOrigins: origins,
	}

	// Literal segments win over {id}, so the analytics routes are safe from
	// the wildcard.
	mux.HandleFunc("POST /api/v1/transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("GET /api/v1/transactions/summary", s.wrap(s.handleSummary))
	mux.HandleFunc("GET /api/v1/transactions/categories", s.wrap(s.handleCategoryBreakdown))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.wrap(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.wrap(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.wrap(s.handleDeleteTransaction))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/", s.wrap(s.handleNotFound))

	return s
}

// wrap adds request tracing, security headers and CORS handling.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldQuery, r.URL.RawQuery,
			applog.FieldClientIP, clientIP)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		s.applyCORS(w, r)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	if _, ok := s.allowedOrigins[strings.TrimRight(origin, "/")]; !ok {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "600")
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// publishEvent notifies downstream consumers of a mutation. Failures are
// logged and swallowed.
func (s *Server) publishEvent(ctx context.Context, action, id string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, action, id); err != nil {
		s.logger.WarnContext(ctx, "Event publish failed",
			"action", action, "id", id, applog.FieldError, err)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("Route not found").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
