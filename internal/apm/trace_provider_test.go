package apm

import (
	"context"
	"io"
	"testing"

	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-honeycomb-team=abc, api-key=def,broken,=x")

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(got), got)
	}
	if got["x-honeycomb-team"] != "abc" || got["api-key"] != "def" {
		t.Errorf("headers = %v", got)
	}
}

func TestNewTraceProvider(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"empty", Options{Provider: EmptyProvider}, false},
		{"stdout", Options{Provider: ConsoleProvider, ServiceName: "svc"}, false},
		{"unknown", Options{Provider: "jaeger"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTraceProvider(context.Background(), log, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTraceProvider() error = %v", err)
			}
			if err := tp.Stop(); err != nil {
				t.Errorf("Stop() error = %v", err)
			}
		})
	}
}
