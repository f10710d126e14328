// Package uniswapv2 implements QuoteProvider for Uniswap V2 style venues
// (Uniswap V2, Sushiswap, Quickswap, Apeswap) by reading the factory, the
// pair and the router directly.
package uniswapv2

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-arbitrage/business/pricing/app"
	"github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/cache"
	"github.com/fd1az/flashloan-arbitrage/internal/circuitbreaker"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
	"github.com/fd1az/flashloan-arbitrage/internal/ratelimit"
)

const (
	tracerName = "uniswapv2"
	meterName  = "uniswapv2"

	// Pair addresses are immutable once created.
	pairCacheTTL = 24 * time.Hour
)

// Ensure Provider implements QuoteProvider.
var _ app.QuoteProvider = (*Provider)(nil)

type providerMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

type pairKey struct {
	factory common.Address
	token0  common.Address
	token1  common.Address
}

// Provider quotes Uniswap V2 style pools.
type Provider struct {
	caller    ethereum.ContractCaller
	limiter   *ratelimit.Limiter
	pairCache *cache.Cache[pairKey, common.Address]

	factoryABI abi.ABI
	pairABI    abi.ABI
	routerABI  abi.ABI

	breakers map[domain.VenueID]*circuitbreaker.CircuitBreaker[[]byte]

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a provider reading through caller. limiter may be nil.
func NewProvider(caller ethereum.ContractCaller, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Provider, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	pairABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}
	routerABI, err := abi.JSON(strings.NewReader(RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	if limiter == nil {
		limiter = ratelimit.New(0, 1)
	}

	p := &Provider{
		caller:     caller,
		limiter:    limiter,
		pairCache:  cache.New[pairKey, common.Address](pairCacheTTL),
		factoryABI: factoryABI,
		pairABI:    pairABI,
		routerABI:  routerABI,
		breakers:   make(map[domain.VenueID]*circuitbreaker.CircuitBreaker[[]byte]),
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}

	// One breaker per venue so a misbehaving router does not block the rest.
	for _, v := range domain.AllVenues() {
		cfg := circuitbreaker.DefaultConfig("venue-" + v.String())
		cfg.IsSuccessful = func(err error) bool {
			return err == nil || isRevert(err)
		}
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			p.logger.Info(context.Background(), "circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		}
		p.breakers[v] = circuitbreaker.New[[]byte](cfg)
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.quotesTotal, err = meter.Int64Counter(
		"venue_quotes_total",
		metric.WithDescription("Total venue quote requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteLatency, err = meter.Float64Histogram(
		"venue_quote_latency_ms",
		metric.WithDescription("Venue quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteErrors, err = meter.Int64Counter(
		"venue_quote_errors_total",
		metric.WithDescription("Total venue quote errors"),
	)
	return err
}

// GetQuote runs factory.getPair, pair.getReserves and router.quote for one
// whole base token.
func (p *Provider) GetQuote(ctx context.Context, venue domain.Venue, pair domain.Pair) (*domain.Quote, error) {
	venueAttr := attribute.String("venue", venue.ID.String())
	ctx, span := p.tracer.Start(ctx, "uniswapv2.get_quote",
		trace.WithAttributes(
			venueAttr,
			attribute.String("pair", pair.String()),
			attribute.String("router", venue.Router.Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(venueAttr))

	quote, err := p.getQuote(ctx, venue, pair)

	p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(venueAttr))

	if err != nil {
		p.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(
			venueAttr, attribute.String("code", string(apperror.GetCode(err))),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("pool", quote.Pool.Hex()),
		attribute.String("price", quote.Price.Raw().String()),
	)
	span.SetStatus(codes.Ok, "quote received")

	p.logger.Debug(ctx, "venue quote",
		"venue", venue.ID,
		"pool", quote.Pool.Hex(),
		"price", quote.Price.String(),
		"reserve_base", quote.Reserves.Base.String(),
		"reserve_quote", quote.Reserves.Quote.String(),
	)

	return quote, nil
}

func (p *Provider) getQuote(ctx context.Context, venue domain.Venue, pair domain.Pair) (*domain.Quote, error) {
	breaker, ok := p.breakers[venue.ID]
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownVenue, apperror.WithContext(venue.ID.String()))
	}

	poolAddr, err := p.getPair(ctx, breaker, venue, pair)
	if err != nil {
		return nil, err
	}

	reserves, err := p.getReserves(ctx, breaker, venue, poolAddr, pair)
	if err != nil {
		return nil, err
	}
	if reserves.Base.Sign() == 0 || reserves.Quote.Sign() == 0 {
		return nil, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("%s pool %s has no liquidity", venue.ID, poolAddr.Hex())))
	}

	amountOut, err := p.routerQuote(ctx, breaker, venue, pair.Base.Unit(), reserves.Base, reserves.Quote)
	if err != nil {
		return nil, err
	}

	q := domain.NewQuote(venue.ID, pair, poolAddr, asset.NewAmount(pair.Quote, amountOut), reserves)
	return &q, nil
}

func (p *Provider) getPair(ctx context.Context, breaker *circuitbreaker.CircuitBreaker[[]byte], venue domain.Venue, pair domain.Pair) (common.Address, error) {
	token0, token1 := sortTokens(pair.Base.Address(), pair.Quote.Address())
	key := pairKey{factory: venue.Factory, token0: token0, token1: token1}

	if addr, found := p.pairCache.Get(ctx, key); found {
		return addr, nil
	}

	out, err := p.call(ctx, breaker, venue, venue.Factory, p.factoryABI, "getPair", pair.Base.Address(), pair.Quote.Address())
	if err != nil {
		return common.Address{}, err
	}

	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, decodeError(venue, "getPair", fmt.Errorf("unexpected type %T", out[0]))
	}
	if addr == (common.Address{}) {
		// Not cached: the pool may be created later.
		return common.Address{}, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContext(fmt.Sprintf("%s has no %s pool", venue.ID, pair)))
	}

	p.pairCache.Set(ctx, key, addr, 0)
	return addr, nil
}

func (p *Provider) getReserves(ctx context.Context, breaker *circuitbreaker.CircuitBreaker[[]byte], venue domain.Venue, pool common.Address, pair domain.Pair) (domain.Reserves, error) {
	out, err := p.call(ctx, breaker, venue, pool, p.pairABI, "getReserves")
	if err != nil {
		return domain.Reserves{}, err
	}
	if len(out) < 2 {
		return domain.Reserves{}, decodeError(venue, "getReserves", fmt.Errorf("got %d outputs", len(out)))
	}

	r0, ok0 := out[0].(*big.Int)
	r1, ok1 := out[1].(*big.Int)
	if !ok0 || !ok1 {
		return domain.Reserves{}, decodeError(venue, "getReserves", fmt.Errorf("unexpected types %T, %T", out[0], out[1]))
	}

	if pair.Base.SortsBefore(pair.Quote) {
		return domain.Reserves{Base: r0, Quote: r1}, nil
	}
	return domain.Reserves{Base: r1, Quote: r0}, nil
}

func (p *Provider) routerQuote(ctx context.Context, breaker *circuitbreaker.CircuitBreaker[[]byte], venue domain.Venue, amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	out, err := p.call(ctx, breaker, venue, venue.Router, p.routerABI, "quote", amountIn, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}

	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return nil, decodeError(venue, "quote", fmt.Errorf("unexpected type %T", out[0]))
	}
	return amountOut, nil
}

// call packs, executes through the venue's breaker and unpacks one read.
func (p *Provider) call(ctx context.Context, breaker *circuitbreaker.CircuitBreaker[[]byte], venue domain.Venue, to common.Address, contract abi.ABI, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeInternalError,
			apperror.WithCause(err), apperror.WithContext("pack "+method))
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("%s %s: throttled", venue.ID, method)))
	}

	raw, err := breaker.Execute(func() ([]byte, error) {
		return p.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		if isRevert(err) {
			return nil, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("%s %s reverted", venue.ID, method)))
		}
		return nil, apperror.New(apperror.CodeConnectionError,
			apperror.WithCause(err), apperror.WithContext(fmt.Sprintf("%s %s", venue.ID, method)))
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, decodeError(venue, method, err)
	}
	if len(out) == 0 {
		return nil, decodeError(venue, method, errors.New("empty result"))
	}
	return out, nil
}

func decodeError(venue domain.Venue, method string, cause error) error {
	return apperror.New(apperror.CodeInvalidQuote,
		apperror.WithCause(cause), apperror.WithContext(fmt.Sprintf("%s %s: decode", venue.ID, method)))
}

// isRevert reports whether err is an EVM execution error rather than a
// transport failure.
func isRevert(err error) bool {
	var de rpc.DataError
	return errors.As(err, &de)
}

func sortTokens(a, b common.Address) (common.Address, common.Address) {
	if a.Cmp(b) < 0 {
		return a, b
	}
	return b, a
}
