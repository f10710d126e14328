// Package ethereum provides Ethereum blockchain infrastructure adapters.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-arbitrage/business/blockchain/app"
	"github.com/fd1az/flashloan-arbitrage/business/blockchain/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

const (
	tracerName = "blockchain.ethereum"
	meterName  = "blockchain.ethereum"
)

var _ app.BlockSubscriber = (*Subscriber)(nil)

// HeadStreamer is a streaming connection, usually a websocket ethclient.
type HeadStreamer interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// HeaderReader is a request/response connection, usually an HTTP ethclient.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// SubscriberConfig holds configuration for the block subscriber.
type SubscriberConfig struct {
	PollInterval   time.Duration // HTTP polling interval
	ReconnectDelay time.Duration // how long to poll before retrying the stream
	BufferSize     int           // block channel buffer size
}

// DefaultSubscriberConfig returns defaults for Polygon (~2s blocks).
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		PollInterval:   2 * time.Second,
		ReconnectDelay: 30 * time.Second,
		BufferSize:     4,
	}
}

type subscriberMetrics struct {
	blocksReceived   metric.Int64Counter
	subscribeErrors  metric.Int64Counter
	connectionState  metric.Int64Gauge
	blockLatency     metric.Float64Histogram
	httpFallbackUsed metric.Int64Counter
}

// Subscriber emits new blocks. It streams heads when a HeadStreamer is
// available and polls the HeaderReader otherwise, going back to the
// stream after ReconnectDelay.
type Subscriber struct {
	config SubscriberConfig
	logger logger.LoggerInterface

	stream HeadStreamer
	reader HeaderReader

	state      domain.ConnectionState
	stateMu    sync.RWMutex
	usingHTTP  atomic.Bool
	lastBlock  atomic.Uint64
	lastUpdate atomic.Int64
	reconnects atomic.Int32

	blocks     chan *domain.Block
	done       chan struct{}
	closeOnce  sync.Once
	subscribed atomic.Bool

	streamCB *circuitbreaker.CircuitBreaker[ethereum.Subscription]
	readerCB *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *subscriberMetrics
}

// NewSubscriber creates a block subscriber. stream may be nil, in which
// case blocks are only polled.
func NewSubscriber(cfg SubscriberConfig, stream HeadStreamer, reader HeaderReader, log logger.LoggerInterface) (*Subscriber, error) {
	if reader == nil {
		return nil, errors.New("header reader is required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultSubscriberConfig().PollInterval
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultSubscriberConfig().ReconnectDelay
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}

	s := &Subscriber{
		config: cfg,
		logger: log,
		stream: stream,
		reader: reader,
		state:  domain.StateDisconnected,
		blocks: make(chan *domain.Block, cfg.BufferSize),
		done:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	s.initCircuitBreakers()

	return s, nil
}

func (s *Subscriber) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &subscriberMetrics{}

	s.metrics.blocksReceived, err = meter.Int64Counter(
		"eth_blocks_received_total",
		metric.WithDescription("Total blocks received"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return err
	}

	s.metrics.subscribeErrors, err = meter.Int64Counter(
		"eth_subscribe_errors_total",
		metric.WithDescription("Total block subscription errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	s.metrics.connectionState, err = meter.Int64Gauge(
		"eth_connection_state",
		metric.WithDescription("Connection state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	s.metrics.blockLatency, err = meter.Float64Histogram(
		"eth_block_latency_ms",
		metric.WithDescription("Latency from block timestamp to receipt"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.httpFallbackUsed, err = meter.Int64Counter(
		"eth_http_fallback_total",
		metric.WithDescription("Times polling replaced the head stream"),
		metric.WithUnit("{fallback}"),
	)
	return err
}

func (s *Subscriber) initCircuitBreakers() {
	onChange := func(name string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	streamCfg := circuitbreaker.DefaultConfig("eth-ws")
	streamCfg.OnStateChange = onChange
	s.streamCB = circuitbreaker.New[ethereum.Subscription](streamCfg)

	readerCfg := circuitbreaker.DefaultConfig("eth-http")
	readerCfg.OnStateChange = onChange
	s.readerCB = circuitbreaker.New[*types.Header](readerCfg)
}

// Subscribe starts listening for new blocks. It may be called once; the
// returned channel is closed when ctx is done or Close is called. When the
// consumer falls behind, older undelivered blocks are replaced by newer ones.
func (s *Subscriber) Subscribe(ctx context.Context) (<-chan *domain.Block, error) {
	select {
	case <-s.done:
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("subscriber is closed"))
	default:
	}
	if !s.subscribed.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.CodeEthereumSubscribeFailed,
			apperror.WithContext("already subscribed"))
	}

	_, span := s.tracer.Start(ctx, "eth.subscribe",
		trace.WithAttributes(attribute.Bool("streaming", s.stream != nil)),
	)
	defer span.End()

	s.setState(domain.StateConnecting)
	go s.run(ctx)

	span.SetStatus(codes.Ok, "subscribed")
	return s.blocks, nil
}

func (s *Subscriber) run(ctx context.Context) {
	defer close(s.blocks)

	for {
		if s.stream != nil {
			err := s.streamHeads(ctx)
			if s.stopped(ctx) {
				return
			}
			s.logger.Warn(ctx, "head stream lost, polling", "error", err)
			s.metrics.subscribeErrors.Add(ctx, 1)
			s.metrics.httpFallbackUsed.Add(ctx, 1)
			s.reconnects.Add(1)
			s.setState(domain.StateReconnecting)
		}

		if !s.poll(ctx, s.stream != nil) {
			return
		}
	}
}

func (s *Subscriber) stopped(ctx context.Context) bool {
	select {
	case <-s.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// streamHeads forwards streamed heads until the subscription fails.
func (s *Subscriber) streamHeads(ctx context.Context) error {
	headers := make(chan *types.Header, s.config.BufferSize)

	sub, err := s.streamCB.Execute(func() (ethereum.Subscription, error) {
		return s.stream.SubscribeNewHead(ctx, headers)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	s.usingHTTP.Store(false)
	s.setState(domain.StateConnected)
	s.logger.Info(ctx, "subscribed to new heads")

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			return err
		case header := <-headers:
			if header != nil {
				s.emit(ctx, header, false)
			}
		}
	}
}

// poll reads the head on every tick. When bounded it returns true after
// ReconnectDelay so the caller can retry the stream; it returns false once
// the subscriber should stop.
func (s *Subscriber) poll(ctx context.Context, bounded bool) bool {
	s.usingHTTP.Store(true)
	s.logger.Info(ctx, "polling for blocks", "interval", s.config.PollInterval)

	var retry <-chan time.Time
	if bounded {
		timer := time.NewTimer(s.config.ReconnectDelay)
		defer timer.Stop()
		retry = timer.C
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.pollOnce(ctx)
	for {
		select {
		case <-s.done:
			return false
		case <-ctx.Done():
			return false
		case <-retry:
			return true
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Subscriber) pollOnce(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "eth.poll.block")
	defer span.End()

	header, err := s.readerCB.Execute(func() (*types.Header, error) {
		return s.reader.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error(ctx, "block poll failed", "error", err)
		s.metrics.subscribeErrors.Add(ctx, 1)
		s.setState(domain.StateReconnecting)
		return
	}

	s.setState(domain.StateConnected)
	s.emit(ctx, header, true)
	span.SetStatus(codes.Ok, "polled")
}

// emit forwards a header unless it is not newer than the last one.
func (s *Subscriber) emit(ctx context.Context, header *types.Header, fromHTTP bool) {
	if header.Number == nil {
		return
	}
	number := header.Number.Uint64()
	if last := s.lastBlock.Load(); number <= last {
		return
	}

	block := domain.BlockFromHeader(header)
	latency := time.Since(block.Timestamp)
	s.metrics.blockLatency.Record(ctx, float64(latency.Milliseconds()),
		metric.WithAttributes(attribute.Bool("from_http", fromHTTP)))

	s.lastBlock.Store(number)
	s.lastUpdate.Store(time.Now().UnixNano())

	for {
		select {
		case s.blocks <- block:
			s.metrics.blocksReceived.Add(ctx, 1)
			s.logger.Debug(ctx, "block received",
				"number", block.Number,
				"latency_ms", latency.Milliseconds(),
				"from_http", fromHTTP)
			return
		default:
		}

		// Full: drop the oldest pending block.
		select {
		case stale := <-s.blocks:
			s.logger.Debug(ctx, "block superseded", "number", stale.Number)
		default:
		}
	}
}

// LatestBlock retrieves the chain head over the request/response connection.
func (s *Subscriber) LatestBlock(ctx context.Context) (*domain.Block, error) {
	ctx, span := s.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	header, err := s.readerCB.Execute(func() (*types.Header, error) {
		return s.reader.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("latest block"))
	}
	if header == nil || header.Number == nil {
		return nil, apperror.New(apperror.CodeBlockNotFound,
			apperror.WithContext("latest block"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return domain.BlockFromHeader(header), nil
}

// State returns the current connection state.
func (s *Subscriber) State() domain.ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Status returns detailed connection status.
func (s *Subscriber) Status() domain.ConnectionStatus {
	var updated time.Time
	if ns := s.lastUpdate.Load(); ns > 0 {
		updated = time.Unix(0, ns)
	}
	return domain.ConnectionStatus{
		State:      s.State(),
		LastBlock:  s.lastBlock.Load(),
		LastUpdate: updated,
		Reconnects: int(s.reconnects.Load()),
		UsingHTTP:  s.usingHTTP.Load(),
	}
}

// Close stops the subscription and closes the stream connection. The
// reader is shared and left open.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Info(context.Background(), "closing block subscriber")
		close(s.done)

		if c, ok := s.stream.(interface{ Close() }); ok {
			c.Close()
		}
		s.setState(domain.StateDisconnected)
	})
	return nil
}

func (s *Subscriber) setState(state domain.ConnectionState) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()

	var v int64
	switch state {
	case domain.StateConnecting:
		v = 1
	case domain.StateConnected:
		v = 2
	case domain.StateReconnecting:
		v = 3
	}
	s.metrics.connectionState.Record(context.Background(), v)
}
