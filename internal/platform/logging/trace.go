package logging

import (
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context format: {version}-{trace-id}-{parent-id}-{trace-flags}
// Example: 00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01
var traceHeaderRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

type traceContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// parseTraceparent extracts trace and span identifiers from a W3C traceparent header.
func parseTraceparent(header string) (traceContext, bool) {
	matches := traceHeaderRe.FindStringSubmatch(header)
	if len(matches) != 5 {
		return traceContext{}, false
	}
	return traceContext{
		TraceID: matches[2],
		SpanID:  matches[3],
		Sampled: matches[4] == "01",
	}, true
}

func traceFields(header string) []zap.Field {
	tc, ok := parseTraceparent(header)
	if !ok {
		return nil
	}
	return []zap.Field{
		zap.String("traceId", tc.TraceID),
		zap.String("spanId", tc.SpanID),
		zap.Bool("traceSampled", tc.Sampled),
	}
}

func loggerWithTrace(base *zap.Logger, header, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := traceFields(header)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
