package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseTraceparent(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		ok      bool
		traceID string
		spanID  string
		sampled bool
	}{
		{
			name:    "sampled",
			header:  "00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-01",
			ok:      true,
			traceID: "3d23d071b5bfd6579171efce907685cb",
			spanID:  "08f067aa0ba902b7",
			sampled: true,
		},
		{
			name:    "not sampled",
			header:  "00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-00",
			ok:      true,
			traceID: "3d23d071b5bfd6579171efce907685cb",
			spanID:  "08f067aa0ba902b7",
			sampled: false,
		},
		{name: "empty", header: ""},
		{name: "garbage", header: "invalid"},
		{name: "short trace ID", header: "00-short-08f067aa0ba902b7-01"},
		{name: "non-hex span", header: "00-3d23d071b5bfd6579171efce907685cb-badspan-01"},
		{name: "legacy cloud trace format", header: "trace/span;o=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, ok := parseTraceparent(tt.header)
			if ok != tt.ok {
				t.Fatalf("parse ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if tc.TraceID != tt.traceID || tc.SpanID != tt.spanID || tc.Sampled != tt.sampled {
				t.Fatalf("parsed %+v, want {%s %s %v}", tc, tt.traceID, tt.spanID, tt.sampled)
			}
		})
	}
}

func TestTraceFields(t *testing.T) {
	fields := traceFields("00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-01")
	if len(fields) != 3 {
		t.Fatalf("expected traceId, spanId and traceSampled, got %+v", fields)
	}
	if fields[0].Key != "traceId" || fields[0].String != "3d23d071b5bfd6579171efce907685cb" {
		t.Fatalf("traceId field = %+v", fields[0])
	}
	if fields[1].Key != "spanId" || fields[1].String != "08f067aa0ba902b7" {
		t.Fatalf("spanId field = %+v", fields[1])
	}
	if fields[2].Key != "traceSampled" || fields[2].Type != zapcore.BoolType || fields[2].Integer != 1 {
		t.Fatalf("traceSampled field = %+v", fields[2])
	}

	if traceFields("") != nil || traceFields("invalid") != nil {
		t.Fatal("unparseable headers must yield no fields")
	}
}

func TestLoggerWithTrace(t *testing.T) {
	header := "00-3d23d071b5bfd6579171efce907685cb-08f067aa0ba902b7-01"

	tests := []struct {
		name     string
		header   string
		reqID    string
		wantKeys []string
	}{
		{name: "trace and request ID", header: header, reqID: "req-1", wantKeys: []string{"traceId", "spanId", "traceSampled", "requestId"}},
		{name: "request ID only", reqID: "req-2", wantKeys: []string{"requestId"}},
		{name: "no correlation", wantKeys: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)

			loggerWithTrace(zap.New(core), tt.header, tt.reqID).Info("probe")

			entry := singleEntry(t, recorded)
			if len(entry.Context) != len(tt.wantKeys) {
				t.Fatalf("fields = %+v, want keys %v", entry.Context, tt.wantKeys)
			}
			for i, key := range tt.wantKeys {
				if entry.Context[i].Key != key {
					t.Fatalf("field %d = %q, want %q", i, entry.Context[i].Key, key)
				}
			}
		})
	}
}

func TestLoggerWithTraceNilBase(t *testing.T) {
	if loggerWithTrace(nil, "", "req-1") == nil {
		t.Fatal("nil base must be replaced with a no-op logger")
	}
}
