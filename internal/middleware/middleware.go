package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"projects-dashboard/internal/config"
	"projects-dashboard/internal/errors"
	"projects-dashboard/internal/observability"
)

type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for _, m := range slices.Backward(middlewares) {
			h = m(h)
		}
		return h
	}
}

// Paths that skip rate limiting so orchestrator probes never see 429.
var unlimitedPaths = []string{"/health"}

const eventStream = "text/event-stream"

func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
		})
	}
}

// Logger logs one line per request. SSE responses are tagged as streams
// since their duration is the lifetime of the patch stream, not a latency.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := record(w)
			log := observability.FromContext(r.Context(), logger)

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.written,
				"duration", time.Since(start),
			}
			if rec.streaming() {
				attrs = append(attrs, "stream", true)
			}
			if q := r.URL.Query().Get("manager"); q != "" {
				attrs = append(attrs, "manager", q)
			}
			log.Info("request completed", attrs...)
		})
	}
}

// Tracing opens a span per request and logs it at debug level when done.
func Tracing(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+r.URL.Path)
			span.SetTag("http.method", r.Method)
			if r.Header.Get("Datastar-Request") != "" {
				span.SetTag("datastar", "true")
			}

			rec := record(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			span.SetTag("http.status_code", strconv.Itoa(rec.status))
			if rec.status >= http.StatusBadRequest {
				span.SetError(fmt.Errorf("HTTP %d", rec.status))
			}
			span.Finish()

			observability.FromContext(ctx, logger).Debug("span finished", "span", span)
		})
	}
}

func CORS(cfg config.SecurityConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := r.Header.Get("Origin"); isAllowedOrigin(origin, cfg.AllowedOrigins) {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, Datastar-Request")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Snapshot-ID")
			h.Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// The dashboard loads datastar from jsDelivr and renders inline SVG charts.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'"},
}

func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, kv := range securityHeaders {
				w.Header().Set(kv[0], kv[1])
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RateLimit(limiter *RateLimiter, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(unlimitedPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ip := getClientIP(r)
			if limiter.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			requestID := observability.GetRequestID(r.Context())
			logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "request_id", requestID)
			w.Header().Set("Retry-After", "1")
			errors.WriteError(w, logger, errors.RateLimit("Too many requests"), requestID)
		})
	}
}

// TrustedProxy strips forwarding headers unless the peer is a configured proxy.
func TrustedProxy(cfg config.SecurityConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(cfg.TrustedProxies, hostOnly(r.RemoteAddr)) {
				for _, h := range []string{"X-Forwarded-For", "X-Real-IP", "X-Forwarded-Proto"} {
					r.Header.Del(h)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recovery turns a panic into a 500 envelope. Once an SSE stream has started
// the status line is gone, so the panic is only logged.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := record(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				requestID := observability.GetRequestID(r.Context())
				logger.Error("panic recovered",
					"panic", p,
					"request_id", requestID,
					"method", r.Method,
					"path", r.URL.Path,
					"headers_sent", rec.wroteHeader,
				)
				if !rec.wroteHeader {
					errors.WriteError(rec, logger, errors.Internal("An unexpected error occurred"), requestID)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// recorder captures what a handler sent while passing writes and flushes
// straight through, which SSE handlers depend on.
type recorder struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func record(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *recorder) WriteHeader(status int) {
	if !rw.wroteHeader {
		rw.status = status
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recorder) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func (rw *recorder) Flush() {
	rw.wroteHeader = true
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *recorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *recorder) streaming() bool {
	return strings.HasPrefix(rw.Header().Get("Content-Type"), eventStream)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return hostOnly(r.RemoteAddr)
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func isAllowedOrigin(origin string, allowed []string) bool {
	return origin != "" && (slices.Contains(allowed, "*") || slices.Contains(allowed, origin))
}
