package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/flashloan-arbitrage/business/blockchain/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

const (
	tracerName = "arbitrage"
	meterName  = "arbitrage"

	minStaleAfter = time.Minute
)

// DetectorConfig holds configuration for the arbitrage detector.
type DetectorConfig struct {
	MinSpread     asset.Amount // in the pair's quote asset
	CheckInterval time.Duration
	BlockDriven   bool
	DryRun        bool
}

type detectorMetrics struct {
	cycles    metric.Int64Counter
	decisions metric.Int64Counter
	latency   metric.Float64Histogram
	spread    metric.Float64Histogram
}

// Detector runs check cycles: quote every venue, detect, and when the
// spread is worth it build and submit a flash loan. Cycles never overlap;
// blocks that arrive during a cycle collapse into one follow-up cycle.
type Detector struct {
	quotes     QuoteFetcher
	flashloans FlashLoans
	blocks     BlockSource // nil means timer driven
	reporter   Reporter
	config     DetectorConfig
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	metrics    *detectorMetrics

	mu        sync.Mutex // serialises cycles
	lastCycle atomic.Int64
	running   atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewDetector creates a new arbitrage Detector.
func NewDetector(
	quotes QuoteFetcher,
	flashloans FlashLoans,
	blocks BlockSource,
	reporter Reporter,
	config DetectorConfig,
	log logger.LoggerInterface,
) (*Detector, error) {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 5 * time.Second
	}

	d := &Detector{
		quotes:     quotes,
		flashloans: flashloans,
		blocks:     blocks,
		reporter:   reporter,
		config:     config,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	d.metrics = &detectorMetrics{}

	d.metrics.cycles, err = meter.Int64Counter(
		"arbitrage_cycles_total",
		metric.WithDescription("Check cycles by outcome"),
	)
	if err != nil {
		return err
	}

	d.metrics.decisions, err = meter.Int64Counter(
		"arbitrage_decisions_total",
		metric.WithDescription("Spread decisions, labelled by whether they acted"),
	)
	if err != nil {
		return err
	}

	d.metrics.latency, err = meter.Float64Histogram(
		"arbitrage_cycle_latency_ms",
		metric.WithDescription("Check cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	d.metrics.spread, err = meter.Float64Histogram(
		"arbitrage_spread",
		metric.WithDescription("Best cross-venue spread in quote asset units"),
	)
	return err
}

// Start begins the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("detector already running"))
	}

	d.logger.Info(ctx, "starting arbitrage detector",
		"min_spread", d.config.MinSpread.String(),
		"block_driven", d.config.BlockDriven,
		"dry_run", d.config.DryRun,
	)

	if err := d.reporter.Start(ctx); err != nil {
		d.running.Store(false)
		return err
	}

	ctx, d.cancel = context.WithCancel(ctx)

	var blocks <-chan *blockchainDomain.Block
	if d.config.BlockDriven && d.blocks != nil {
		ch, err := d.blocks.SubscribeBlocks(ctx)
		if err != nil {
			d.logger.Warn(ctx, "block subscription failed, using timer", "error", err)
			d.reporter.UpdateConnectionStatus("blocks", false, 0)
		} else {
			blocks = ch
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx, blocks)
	}()

	return nil
}

func (d *Detector) run(ctx context.Context, blocks <-chan *blockchainDomain.Block) {
	// Check once right away rather than waiting for the first trigger.
	d.Check(ctx, 0)

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	// With a block stream the ticker is idle.
	tick := ticker.C
	if blocks != nil {
		tick = nil
	}

	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "detector stopping", "reason", ctx.Err())
			return

		case block, ok := <-blocks:
			if !ok {
				d.logger.Warn(ctx, "block stream ended, using timer")
				d.reporter.UpdateConnectionStatus("blocks", false, 0)
				blocks = nil
				tick = ticker.C
				continue
			}
			if block == nil {
				continue
			}
			block = latest(block, blocks)
			d.reporter.UpdateConnectionStatus("blocks", true, time.Since(block.Timestamp))
			d.Check(ctx, block.Number)

		case <-tick:
			d.Check(ctx, 0)
		}
	}
}

// latest drains blocks already queued behind b and returns the newest.
func latest(b *blockchainDomain.Block, blocks <-chan *blockchainDomain.Block) *blockchainDomain.Block {
	for {
		select {
		case next, ok := <-blocks:
			if !ok || next == nil {
				return b
			}
			b = next
		default:
			return b
		}
	}
}

// Check runs one cycle and reports it. block is the triggering block
// number, 0 when timer driven. Concurrent calls are serialised.
func (d *Detector) Check(ctx context.Context, block uint64) *Cycle {
	d.mu.Lock()
	defer d.mu.Unlock()

	cycle := &Cycle{ID: uuid.NewString(), Block: block, StartedAt: time.Now()}

	ctx, span := d.tracer.Start(ctx, "arbitrage.check",
		trace.WithAttributes(
			attribute.String("cycle.id", cycle.ID),
			attribute.Int64("block", int64(block)),
		),
	)
	defer span.End()
	d.check(ctx, cycle)
	cycle.Duration = time.Since(cycle.StartedAt)

	d.lastCycle.Store(time.Now().UnixNano())
	d.record(ctx, span, cycle)
	d.reporter.ReportCycle(cycle)

	return cycle
}

func (d *Detector) check(ctx context.Context, cycle *Cycle) {
	cycle.Quotes = d.quotes.FetchQuotes(ctx)

	for _, q := range cycle.Quotes.Quotes {
		d.logger.Info(ctx, "venue price",
			"cycle", cycle.ID,
			"venue", q.Venue.String(),
			"price", q.Price.StringFixed(6),
		)
	}

	decision, ok := domain.Detect(cycle.Quotes.Quotes, d.config.MinSpread)
	if !ok {
		cycle.Outcome = OutcomeNoDecision
		if len(cycle.Quotes.Quotes) == 0 && len(cycle.Quotes.Failures) > 0 {
			cycle.Err = noVenueQuotes(cycle.Quotes.Failures)
		}
		d.logger.Warn(ctx, "not enough venue quotes to compare",
			"quotes", len(cycle.Quotes.Quotes),
			"failures", len(cycle.Quotes.Failures),
		)
		return
	}
	cycle.Decision = &decision

	d.logger.Info(ctx, "biggest price difference",
		"cycle", cycle.ID,
		"spread", decision.Spread.StringFixed(6),
		"cheap", decision.CheapVenue.String(),
		"rich", decision.RichVenue.String(),
		"act", decision.Act,
	)

	if !decision.Act {
		cycle.Outcome = OutcomeBelowThreshold
		return
	}

	req, err := d.flashloans.Prepare(decision)
	if err != nil {
		cycle.Outcome = OutcomeFailed
		cycle.Err = err
		d.logger.Error(ctx, "failed to build flash loan", "error", err)
		return
	}
	cycle.Request = req

	if d.config.DryRun {
		cycle.Outcome = OutcomeDryRun
		d.logger.Info(ctx, "dry run, flash loan not submitted",
			"first", req.Hops[0].Venue.String(),
			"second", req.Hops[len(req.Hops)-1].Venue.String(),
		)
		return
	}

	receipt, err := d.flashloans.Submit(ctx, req)
	cycle.Receipt = receipt
	switch {
	case err == nil:
		cycle.Outcome = OutcomeSubmitted
	case errors.Is(err, apperror.New(apperror.CodeRevertError)):
		cycle.Outcome = OutcomeReverted
		cycle.Err = err
	default:
		cycle.Outcome = OutcomeFailed
		cycle.Err = err
	}
}

func noVenueQuotes(failures []pricingDomain.VenueError) error {
	causes := make([]error, len(failures))
	for i, f := range failures {
		causes[i] = f
	}
	return apperror.New(apperror.CodeNoVenueQuotes,
		apperror.WithCause(errors.Join(causes...)),
		apperror.WithContext(fmt.Sprintf("%d venues failed", len(failures))))
}

func (d *Detector) record(ctx context.Context, span trace.Span, cycle *Cycle) {
	outcome := attribute.String("outcome", string(cycle.Outcome))
	d.metrics.cycles.Add(ctx, 1, metric.WithAttributes(outcome))
	d.metrics.latency.Record(ctx, float64(cycle.Duration.Milliseconds()))

	span.SetAttributes(outcome, attribute.Int("quotes", len(cycle.Quotes.Quotes)))

	if cycle.Decision != nil {
		d.metrics.decisions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("act", cycle.Decision.Act)))
		d.metrics.spread.Record(ctx, cycle.Decision.Spread.ToFloat64())
		span.SetAttributes(
			attribute.String("cheap", cycle.Decision.CheapVenue.String()),
			attribute.String("rich", cycle.Decision.RichVenue.String()),
			attribute.String("spread", cycle.Decision.Spread.String()),
		)
	}

	if cycle.Err != nil {
		span.RecordError(cycle.Err)
		span.SetStatus(codes.Error, cycle.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, string(cycle.Outcome))
}

// Alive is a health check: the detector is running and completed a cycle
// recently.
func (d *Detector) Alive(_ context.Context) (bool, string) {
	if !d.running.Load() {
		return false, "detector not running"
	}
	last := d.lastCycle.Load()
	if last == 0 {
		return false, "no cycle completed yet"
	}

	age := time.Since(time.Unix(0, last))
	staleAfter := 3 * d.config.CheckInterval
	if staleAfter < minStaleAfter {
		staleAfter = minStaleAfter
	}
	if age > staleAfter {
		return false, fmt.Sprintf("last cycle %s ago", age.Round(time.Second))
	}
	return true, fmt.Sprintf("last cycle %s ago", age.Round(time.Millisecond))
}

// Stop gracefully shuts down the detector.
func (d *Detector) Stop() error {
	if !d.running.CompareAndSwap(true, false) {
		return nil
	}
	d.logger.Info(context.Background(), "stopping arbitrage detector")

	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	return d.reporter.Stop()
}
