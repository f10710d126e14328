package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
)

type options struct {
	meterProvider   metric.MeterProvider
	providerName    string
	roundTripper    http.RoundTripper
	requestTimeout  time.Duration
	maxConnsPerHost int
}

// Option configures New.
type Option func(*options)

func newOptions(opts ...Option) *options {
	o := &options{
		providerName:    "default",
		requestTimeout:  defaultRequestTimeout,
		maxConnsPerHost: defaultMaxConnsPerHost,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithProviderName labels metrics with the upstream's name.
func WithProviderName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.providerName = name
		}
	}
}

// WithRoundTripper replaces the pooled base transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.roundTripper = rt
	}
}

// WithRequestTimeout bounds each request. Zero keeps the default.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.requestTimeout = timeout
		}
	}
}

// WithMaxConnsPerHost caps open connections to the node.
func WithMaxConnsPerHost(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConnsPerHost = n
		}
	}
}
