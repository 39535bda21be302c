package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkrencik/droppit/internal/database"
	"github.com/mkrencik/droppit/internal/ingest"
	"github.com/mkrencik/droppit/internal/logger"
	"github.com/mkrencik/droppit/internal/metrics"
	"github.com/mkrencik/droppit/internal/sse"
	"github.com/mkrencik/droppit/internal/storeapi"
)

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
	hub        *sse.Hub
}

// NewServer wires the store contract, admin controls, and streaming
// endpoints onto a single chi router.
func NewServer(port int, adminToken string, trustedProxies []string, dbPool database.Pool, events storeapi.EventLogRepository, board storeapi.LeaderboardRepository, settings *ingest.Settings, hub *sse.Hub) *Server {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(adminToken, trustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(trustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", storeapi.HandleHealthz())
	r.Get("/readyz", storeapi.HandleReadyz(dbPool))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", storeapi.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", storeapi.HandleStatus(settings))

		// Shared store contract consumed by viewer clients
		r.Route("/store", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Get("/", storeapi.HandleGetEvents(events))
				r.Post("/", storeapi.HandleAppendEvent(events, hub))
				r.Get("/{key}", storeapi.HandleGetEvent(events))
			})

			r.Route("/leaderboard", func(r chi.Router) {
				r.Get("/", storeapi.HandleGetLeaderboard(board))
				r.Put("/", storeapi.HandlePutLeaderboard(board, hub))
				r.Patch("/", storeapi.HandlePatchLeaderboard(board, hub))
				r.Get("/{key}", storeapi.HandleGetLeaderboardEntry(board))
			})

			r.Get("/stream", sse.Handler(hub, storeapi.NewSnapshotFunc(events, board)))
		})

		// Admin routes (token-gated by AuthMiddleware)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/spawn", storeapi.HandleSetSpawnGate(settings))
			r.Post("/cooldown", storeapi.HandleSetCooldown(settings))
			r.Post("/streak-mode", storeapi.HandleSetStreakMode(settings))
			r.Post("/leaderboard/reset", storeapi.HandleResetLeaderboard(board, hub))
			r.Get("/events", sse.Handler(hub, storeapi.NewSnapshotFunc(events, board)))
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
		hub:    hub,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush passes through so streaming handlers keep working behind the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		// Use HasPrefix to catch potential variations (e.g. /healthz/)
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		// Generate unique request ID
		requestID := logger.GenerateRequestID()

		// Add request ID to context
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		// Get scoped logger
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		// Wrap response writer to capture status code
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
