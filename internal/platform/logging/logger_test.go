package logging

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/entra-playground/internal/platform/timeutil"
)

// resetLoggerForTest clears the singleton state so a test can rebuild the
// logger against a redirected stdout.
func resetLoggerForTest() {
	loggerOnce = sync.Once{}
	baseLogger = nil
	sugarLogger = nil
	loggerErr = nil
	outputPath = "stdout"
}

// captureStdout rebuilds the logger with stdout redirected to a pipe, runs
// logFn, and returns everything written.
func captureStdout(t *testing.T, logFn func()) string {
	t.Helper()

	resetLoggerForTest()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer func() { _ = r.Close() }()

	origStdout, origStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = w, w
	defer func() {
		os.Stdout, os.Stderr = origStdout, origStderr
	}()

	logFn()
	_ = Logger().Sync()

	if err := w.Close(); err != nil {
		t.Fatalf("close pipe writer: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read captured output: %v", err)
	}
	return string(data)
}

// captureLogEntry captures a single JSON log line and decodes it.
func captureLogEntry(t *testing.T, logFn func(*zap.Logger)) map[string]any {
	t.Helper()

	out := strings.TrimSpace(captureStdout(t, func() { logFn(Logger()) }))
	if out == "" {
		t.Fatal("expected a log line, got nothing")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	return payload
}

func TestLoggerEmitsStructuredJSON(t *testing.T) {
	payload := captureLogEntry(t, func(l *zap.Logger) {
		l.Info("GET /greeting")
	})

	for _, key := range []string{"timestamp", "severity", "message", "caller"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing %q in log entry: %v", key, payload)
		}
	}
	if _, ok := payload["level"]; ok {
		t.Fatal("level key must be renamed to severity")
	}

	if payload["severity"] != "INFO" {
		t.Fatalf("severity = %v, want INFO", payload["severity"])
	}
	if payload["message"] != "GET /greeting" {
		t.Fatalf("message = %v", payload["message"])
	}

	caller, _ := payload["caller"].(string)
	if !strings.Contains(caller, "logger_test.go") {
		t.Fatalf("caller = %q, want a logger_test.go location", caller)
	}

	ts, _ := payload["timestamp"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("timestamp %q is not UTC", ts)
	}
	parsed, err := time.Parse(timeutil.RFC3339Micros, ts)
	if err != nil {
		t.Fatalf("timestamp %q is not RFC 3339 with microseconds: %v", ts, err)
	}
	if parsed.Location() != time.UTC {
		t.Fatalf("timestamp location = %v, want UTC", parsed.Location())
	}
}

func TestLoggerFieldEncoding(t *testing.T) {
	payload := captureLogEntry(t, func(l *zap.Logger) {
		l.Error("verify failed",
			zap.String("method", "GET"),
			zap.Int("status", 401),
			zap.Float64("duration_ms", 2.5),
			zap.Bool("cached", false),
			zap.Error(io.EOF),
		)
	})

	if payload["severity"] != "ERROR" {
		t.Fatalf("severity = %v, want ERROR", payload["severity"])
	}
	if payload["method"] != "GET" {
		t.Fatalf("method = %v", payload["method"])
	}
	if status, ok := payload["status"].(float64); !ok || status != 401 {
		t.Fatalf("status = %v", payload["status"])
	}
	if d, ok := payload["duration_ms"].(float64); !ok || d != 2.5 {
		t.Fatalf("duration_ms = %v", payload["duration_ms"])
	}
	if cached, ok := payload["cached"].(bool); !ok || cached {
		t.Fatalf("cached = %v", payload["cached"])
	}
	if payload["error"] != "EOF" {
		t.Fatalf("error = %v, want EOF", payload["error"])
	}
}

func TestSugarSharesCoreAndSeverity(t *testing.T) {
	payload := captureLogEntry(t, func(*zap.Logger) {
		Sugar().Warnw("token near expiry", "seconds_left", 42)
	})

	if payload["severity"] != "WARNING" {
		t.Fatalf("severity = %v, want WARNING", payload["severity"])
	}
	if payload["message"] != "token near expiry" {
		t.Fatalf("message = %v", payload["message"])
	}
	if left, ok := payload["seconds_left"].(float64); !ok || left != 42 {
		t.Fatalf("seconds_left = %v", payload["seconds_left"])
	}

	if Logger().Core() != Sugar().Desugar().Core() {
		t.Fatal("Logger and Sugar must share one core")
	}
}

func TestDebugSuppressedAtProductionLevel(t *testing.T) {
	out := captureStdout(t, func() {
		Logger().Debug("dropped at info level")
	})
	if strings.Contains(out, "dropped at info level") {
		t.Fatal("debug entries must not reach production output")
	}
}

func TestEncodeSeverityMapping(t *testing.T) {
	want := map[zapcore.Level]string{
		zapcore.DebugLevel:  "DEBUG",
		zapcore.InfoLevel:   "INFO",
		zapcore.WarnLevel:   "WARNING",
		zapcore.ErrorLevel:  "ERROR",
		zapcore.DPanicLevel: "CRITICAL",
		zapcore.PanicLevel:  "ALERT",
		zapcore.FatalLevel:  "EMERGENCY",
		zapcore.Level(42):   "DEFAULT",
	}

	for level, name := range want {
		enc := &captureArrayEncoder{}
		encodeSeverity(level, enc)
		if len(enc.values) != 1 || enc.values[0] != name {
			t.Errorf("encodeSeverity(%v) = %v, want %s", level, enc.values, name)
		}
	}
}

func TestEncodeTimeMicros(t *testing.T) {
	tests := []struct {
		name  string
		input time.Time
		want  string
	}{
		{
			name:  "whole second",
			input: time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC),
			want:  "2025-08-25T09:00:00.000000Z",
		},
		{
			name:  "sub-microsecond truncated",
			input: time.Date(2025, 8, 25, 9, 0, 0, 123456789, time.UTC),
			want:  "2025-08-25T09:00:00.123456Z",
		},
		{
			name:  "offset converted to UTC",
			input: time.Date(2025, 8, 25, 12, 0, 0, 500000000, time.FixedZone("EEST", 3*60*60)),
			want:  "2025-08-25T09:00:00.500000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &captureArrayEncoder{}
			encodeTimeMicros(tt.input, enc)
			if len(enc.values) != 1 || enc.values[0] != tt.want {
				t.Fatalf("got %v, want %s", enc.values, tt.want)
			}
		})
	}
}

func TestLoggerSingleton(t *testing.T) {
	resetLoggerForTest()

	if Logger() != Logger() {
		t.Fatal("Logger must return one shared instance")
	}
	if Err() != nil {
		t.Fatalf("Err = %v, want nil after successful init", Err())
	}
	if err := Sync(); err != nil {
		t.Logf("Sync returned %v (platform dependent, not a failure)", err)
	}
}

func TestUseStderrKeepsStdoutClean(t *testing.T) {
	// CLI commands print their result on stdout and log progress on
	// stderr, so the two streams must stay separate end to end.
	resetLoggerForTest()
	t.Cleanup(resetLoggerForTest)

	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer func() { _ = outR.Close() }()
	errR, errW, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer func() { _ = errR.Close() }()

	origStdout, origStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	defer func() {
		os.Stdout, os.Stderr = origStdout, origStderr
	}()

	UseStderr()
	Logger().Info("token acquired")
	_ = Logger().Sync()

	if err := outW.Close(); err != nil {
		t.Fatalf("close stdout writer: %v", err)
	}
	if err := errW.Close(); err != nil {
		t.Fatalf("close stderr writer: %v", err)
	}
	stdout, err := io.ReadAll(outR)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	stderr, err := io.ReadAll(errR)
	if err != nil {
		t.Fatalf("read stderr: %v", err)
	}

	if len(stdout) != 0 {
		t.Fatalf("stdout must stay clean, got %q", stdout)
	}
	if !strings.Contains(string(stderr), `"message":"token acquired"`) {
		t.Fatalf("expected log entry on stderr, got %q", stderr)
	}
}

func TestLoggerConcurrentInit(t *testing.T) {
	resetLoggerForTest()

	loggers := make(chan *zap.Logger, 64)
	var wg sync.WaitGroup
	for range 64 {
		wg.Go(func() {
			loggers <- Logger()
		})
	}
	wg.Wait()
	close(loggers)

	first := <-loggers
	for l := range loggers {
		if l != first {
			t.Fatal("concurrent Logger calls returned different instances")
		}
	}
}

// captureArrayEncoder collects strings appended via the PrimitiveArrayEncoder interface.
type captureArrayEncoder struct {
	values []string
}

func (c *captureArrayEncoder) AppendBool(bool)             {}
func (c *captureArrayEncoder) AppendByteString([]byte)     {}
func (c *captureArrayEncoder) AppendComplex128(complex128) {}
func (c *captureArrayEncoder) AppendComplex64(complex64)   {}
func (c *captureArrayEncoder) AppendFloat64(float64)       {}
func (c *captureArrayEncoder) AppendFloat32(float32)       {}
func (c *captureArrayEncoder) AppendInt(int)               {}
func (c *captureArrayEncoder) AppendInt64(int64)           {}
func (c *captureArrayEncoder) AppendInt32(int32)           {}
func (c *captureArrayEncoder) AppendInt16(int16)           {}
func (c *captureArrayEncoder) AppendInt8(int8)             {}
func (c *captureArrayEncoder) AppendString(s string)       { c.values = append(c.values, s) }
func (c *captureArrayEncoder) AppendUint(uint)             {}
func (c *captureArrayEncoder) AppendUint64(uint64)         {}
func (c *captureArrayEncoder) AppendUint32(uint32)         {}
func (c *captureArrayEncoder) AppendUint16(uint16)         {}
func (c *captureArrayEncoder) AppendUint8(uint8)           {}
func (c *captureArrayEncoder) AppendUintptr(uintptr)       {}
