package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_WritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "flashloan-arbitrage", nil)

	log.Info(context.Background(), "quote fetched", "venue", "sushiswap", "price", "3000.00")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "quote fetched" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if rec["service"] != "flashloan-arbitrage" {
		t.Errorf("service = %v", rec["service"])
	}
	if rec["venue"] != "sushiswap" {
		t.Errorf("venue = %v", rec["venue"])
	}
	if file, _ := rec["file"].(string); !strings.HasPrefix(file, "logger/logger_test.go:") {
		t.Errorf("file = %v, want caller location in logger_test.go", rec["file"])
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "svc", nil)

	log.Debug(context.Background(), "debug")
	log.Info(context.Background(), "info")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below warn, got %q", buf.String())
	}

	log.Warn(context.Background(), "warn")
	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Errorf("expected warn record, got %q", buf.String())
	}
}

func TestLogger_TraceIDFn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "svc", func(context.Context) string { return "abc123" })

	log.Error(context.Background(), "failed")
	if !strings.Contains(buf.String(), `"trace_id":"abc123"`) {
		t.Errorf("expected trace id, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"error":   LevelError,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := ParseLevel(in); got != want {
				t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
			}
		})
	}
}
