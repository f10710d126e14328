package app

import (
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	flashloanDomain "github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
)

// Outcome summarises how a check cycle ended.
type Outcome string

const (
	OutcomeNoDecision     Outcome = "no_decision"     // fewer than two venues quoted
	OutcomeBelowThreshold Outcome = "below_threshold" // spread did not exceed the minimum
	OutcomeDryRun         Outcome = "dry_run"         // request built, not sent
	OutcomeSubmitted      Outcome = "submitted"
	OutcomeReverted       Outcome = "reverted"
	OutcomeFailed         Outcome = "failed" // build or submission error
)

// Cycle is the record of one check.
type Cycle struct {
	ID        string // correlates logs, spans and reports
	Block     uint64 // triggering block, 0 when timer driven
	StartedAt time.Time
	Duration  time.Duration

	Quotes   pricingDomain.QuoteSet
	Decision *domain.SpreadDecision
	Request  *flashloanDomain.FlashLoanRequest
	Receipt  *types.Receipt

	Outcome Outcome
	Err     error
}

// Acted reports whether the cycle found a spread worth taking.
func (c *Cycle) Acted() bool {
	return c.Decision != nil && c.Decision.Act
}
