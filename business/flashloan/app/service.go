package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbDomain "github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

const (
	tracerName = "flashloan"
	meterName  = "flashloan"
)

type serviceMetrics struct {
	submissions metric.Int64Counter
	reverts     metric.Int64Counter
	failures    metric.Int64Counter
	latency     metric.Float64Histogram
}

// FlashLoanService prepares requests for acting decisions and hands them to
// the submitter.
type FlashLoanService struct {
	builder   *Builder
	submitter Submitter
	params    BuildParams
	logger    logger.LoggerInterface
	tracer    trace.Tracer
	metrics   *serviceMetrics
}

// NewFlashLoanService creates a FlashLoanService. params are applied to
// every request it prepares.
func NewFlashLoanService(builder *Builder, submitter Submitter, params BuildParams, log logger.LoggerInterface) (*FlashLoanService, error) {
	s := &FlashLoanService{
		builder:   builder,
		submitter: submitter,
		params:    params,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *FlashLoanService) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	s.metrics = &serviceMetrics{}

	s.metrics.submissions, err = meter.Int64Counter(
		"flashloan_submissions_total",
		metric.WithDescription("Flash loan transactions broadcast"),
	)
	if err != nil {
		return err
	}

	s.metrics.reverts, err = meter.Int64Counter(
		"flashloan_reverts_total",
		metric.WithDescription("Flash loan transactions mined with a failed status"),
	)
	if err != nil {
		return err
	}

	s.metrics.failures, err = meter.Int64Counter(
		"flashloan_submission_errors_total",
		metric.WithDescription("Flash loan submissions that failed before a receipt"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"flashloan_submission_latency_ms",
		metric.WithDescription("Time from broadcast to receipt in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// Params returns the per-request parameters.
func (s *FlashLoanService) Params() BuildParams {
	return s.params
}

// Prepare builds the request for decision.
func (s *FlashLoanService) Prepare(decision arbDomain.SpreadDecision) (*domain.FlashLoanRequest, error) {
	return s.builder.Build(decision, s.params)
}

// Submit broadcasts req once and waits for its receipt.
func (s *FlashLoanService) Submit(ctx context.Context, req *domain.FlashLoanRequest) (*types.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "flashloan.submit",
		trace.WithAttributes(
			attribute.String("loan_amount", req.LoanAmount.String()),
			attribute.Int("hops", len(req.Hops)),
			attribute.Int64("gas_limit", int64(req.GasLimit)),
		),
	)
	defer span.End()

	start := time.Now()
	s.metrics.submissions.Add(ctx, 1)

	receipt, err := s.submitter.Submit(ctx, req)
	s.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		code := apperror.GetCode(err)
		if code == apperror.CodeRevertError {
			s.metrics.reverts.Add(ctx, 1)
		} else {
			s.metrics.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(code))))
		}
		s.logger.Error(ctx, "flash loan submission failed", "code", code, "error", err)
		return receipt, err
	}

	span.SetAttributes(
		attribute.String("tx_hash", receipt.TxHash.Hex()),
		attribute.Int64("gas_used", int64(receipt.GasUsed)),
	)
	span.SetStatus(codes.Ok, "flash loan mined")

	s.logger.Info(ctx, "flash loan mined",
		"tx", receipt.TxHash.Hex(),
		"block", receipt.BlockNumber,
		"gas_used", receipt.GasUsed,
	)
	return receipt, nil
}
