// Package trace assigns request IDs, logs completed requests and records
// HTTP metrics.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "salarydash/internal/log"
	"salarydash/internal/metrics"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	routeKey     contextKey = "route"
)

// HeaderRequestID is echoed on every response and honoured when a client
// or proxy already set it.
const HeaderRequestID = "X-Request-ID"

// Middleware wraps handlers with request ID propagation and access logging.
type Middleware struct {
	logger   *applog.Logger
	clientIP func(*http.Request) string
}

// New creates a trace middleware. clientIP may be nil, in which case the
// remote address is logged as is.
func New(logger *applog.Logger, clientIP func(*http.Request) string) *Middleware {
	if clientIP == nil {
		clientIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	return &Middleware{logger: logger, clientIP: clientIP}
}

// Handler returns the HTTP middleware function.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		route := new(string)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = context.WithValue(ctx, routeKey, route)
		ctx = applog.NewContext(ctx, m.logger.With(applog.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		// The mux fills r.Pattern only when it is handed this request value;
		// handlers further down report their route with SetRoute.
		pattern := *route
		if pattern == "" {
			pattern = r.Pattern
		}
		metrics.ObserveHTTP(r.Method, pattern, rw.statusCode, elapsed)
		applog.LogHTTPEnd(ctx, r, rw.statusCode, elapsed.Milliseconds(), m.clientIP(r))
	})
}

// GetRequestID returns the request ID stored by the middleware, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// SetRoute records the matched route pattern used as the metrics label.
func SetRoute(ctx context.Context, pattern string) {
	if route, ok := ctx.Value(routeKey).(*string); ok {
		*route = pattern
	}
}

// GenerateRequestID returns a random "req_" prefixed identifier.
func GenerateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

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

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
