package logging

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// resolveTraceID picks the correlation ID for a request: the W3C trace ID
// when a valid traceparent header is present, the chi request ID otherwise.
func resolveTraceID(header, requestID string) string {
	if tc, ok := parseTraceparent(header); ok {
		return tc.TraceID
	}
	return requestID
}

// RequestLogger enriches the request context with a zap logger that embeds trace correlation fields.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(traceparentHeader)
			reqID := chimiddleware.GetReqID(r.Context())

			ctx := contextWithTraceID(r.Context(), resolveTraceID(header, reqID))
			ctx = contextWithLogger(ctx, loggerWithTrace(Logger(), header, reqID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLogger writes structured request summaries using the request-scoped logger.
func AccessLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			LogInfo(r.Context(), "request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
