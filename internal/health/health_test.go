package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

func newTestServer() *Server {
	return NewServer(0, "test", logger.New(io.Discard, logger.LevelError, "test", nil))
}

func TestHealth_AllHealthy(t *testing.T) {
	s := newTestServer()
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return true, "block 123" })
	s.RegisterCheck("detector", func(context.Context) (bool, string) { return true, "" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" || len(status.Checks) != 2 {
		t.Errorf("status = %+v", status)
	}
	if status.Checks["rpc"].Message != "block 123" {
		t.Errorf("rpc check = %+v", status.Checks["rpc"])
	}
}

func TestHealth_Degraded(t *testing.T) {
	s := newTestServer()
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return false, "connection refused" })

	tests := []struct {
		name string
		path string
		want int
	}{
		{"health", "/health", http.StatusServiceUnavailable},
		{"ready", "/ready", http.StatusServiceUnavailable},
		{"live", "/live", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("%s status = %d, want %d", tt.path, rec.Code, tt.want)
			}
		})
	}
}
