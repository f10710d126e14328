// Package httpclient builds the instrumented HTTP client that JSON-RPC
// calls to the node run over.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Default connection pool settings
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxIdleConns          = 0
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	metricRequestCounter = "http_client_requests_total"
	meterName            = "instrumented_http_client"
)

// New returns an http.Client whose transport is traced with otelhttp and
// counts requests per provider and status.
func New(opts ...Option) (*http.Client, error) {
	o := newOptions(opts...)

	base := o.roundTripper
	if base == nil {
		base = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxConnsPerHost:       o.maxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	meterProvider := o.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	requests, err := meterProvider.Meter(meterName).Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	traced := otelhttp.NewTransport(
		base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	return &http.Client{
		Timeout: o.requestTimeout,
		Transport: &countingTransport{
			next:     traced,
			requests: requests,
			provider: attribute.String("provider", o.providerName),
		},
	}, nil
}

type countingTransport struct {
	next     http.RoundTripper
	requests metric.Int64Counter
	provider attribute.KeyValue
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	t.requests.Add(req.Context(), 1, metric.WithAttributes(t.provider, attribute.String("status", status)))

	return resp, err
}
