package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_DebugContextStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: ParseLevel("debug"), Component: ComponentWorker, Output: &buf})

	logger.DebugContext(context.Background(), "Processing record event", FieldRecordID, 7)
	out := buf.String()
	for _, want := range []string{"level=DEBUG", "component=worker", "record_id=7"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line %q does not contain %q", out, want)
		}
	}

	buf.Reset()
	quiet := New(Config{Level: ParseLevel("info"), Output: &buf})
	quiet.DebugContext(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
