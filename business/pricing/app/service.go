package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

const tracerName = "pricing"

// QuoteService quotes the configured pair on every configured venue.
type QuoteService struct {
	provider QuoteProvider
	venues   []domain.Venue
	pair     domain.Pair
	timeout  time.Duration
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewQuoteService creates a QuoteService. timeout bounds each venue's call;
// zero means the caller's context alone bounds it.
func NewQuoteService(provider QuoteProvider, venues []domain.Venue, pair domain.Pair, timeout time.Duration, log logger.LoggerInterface) *QuoteService {
	return &QuoteService{
		provider: provider,
		venues:   venues,
		pair:     pair,
		timeout:  timeout,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Venues returns the venues in configured order.
func (s *QuoteService) Venues() []domain.Venue {
	out := make([]domain.Venue, len(s.venues))
	copy(out, s.venues)
	return out
}

// Pair returns the quoted pair.
func (s *QuoteService) Pair() domain.Pair {
	return s.pair
}

// GetQuote quotes the pair on a single venue.
func (s *QuoteService) GetQuote(ctx context.Context, venue domain.Venue) (*domain.Quote, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.GetQuote(ctx, venue, s.pair)
}

// FetchQuotes quotes every venue concurrently and waits for all of them.
// A failing venue is recorded in Failures and never cancels its siblings.
// Quotes keep the configured venue order.
func (s *QuoteService) FetchQuotes(ctx context.Context) domain.QuoteSet {
	ctx, span := s.tracer.Start(ctx, "pricing.fetch_quotes",
		trace.WithAttributes(
			attribute.String("pair", s.pair.String()),
			attribute.Int("venues", len(s.venues)),
		),
	)
	defer span.End()

	start := time.Now()
	quotes := make([]*domain.Quote, len(s.venues))
	errs := make([]error, len(s.venues))

	// Plain Group: one venue's error must not cancel the others.
	var g errgroup.Group
	for i, venue := range s.venues {
		g.Go(func() error {
			quotes[i], errs[i] = s.GetQuote(ctx, venue)
			return nil
		})
	}
	_ = g.Wait()

	set := domain.QuoteSet{
		Pair:      s.pair,
		FetchedAt: start,
		Latency:   time.Since(start),
	}
	for i, venue := range s.venues {
		if errs[i] != nil {
			set.Failures = append(set.Failures, domain.VenueError{Venue: venue.ID, Err: errs[i]})
			s.logger.Warn(ctx, "venue quote failed", "venue", venue.ID, "error", errs[i])
			continue
		}
		set.Quotes = append(set.Quotes, *quotes[i])
	}

	span.SetAttributes(
		attribute.Int("quotes", len(set.Quotes)),
		attribute.Int("failures", len(set.Failures)),
	)
	if len(set.Quotes) == 0 && len(s.venues) > 0 {
		span.SetStatus(codes.Error, "no venue returned a quote")
	} else {
		span.SetStatus(codes.Ok, "quotes fetched")
	}

	return set
}
