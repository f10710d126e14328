package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

func TestNewMetricProvider_PrometheusExport(t *testing.T) {
	ctx := context.Background()

	mp, err := NewMetricProvider(ctx, Config{ServiceName: "flashloan-arbitrage-test"})
	if err != nil {
		t.Fatalf("NewMetricProvider() error = %v", err)
	}
	defer mp.Shutdown(ctx)

	counter, err := mp.Meter("test").Int64Counter("arb_test_events_total")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(ctx, 3)

	srv := NewPrometheusServer(0, logger.New(io.Discard, logger.LevelError, "test", nil))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "arb_test_events_total") {
		t.Error("expected counter in scrape output")
	}
}

func TestNewMetricProvider_UnknownProvider(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), Config{
		Providers: []ProviderCfg{{Provider: "statsd"}},
	})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}
