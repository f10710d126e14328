// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/flashloan-arbitrage/business/blockchain/domain"
	flashloanDomain "github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
)

// Reporter defines the interface for reporting check cycles.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportCycle publishes the outcome of one check.
	ReportCycle(cycle *Cycle)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// QuoteFetcher returns one joined fan-out of venue quotes.
type QuoteFetcher interface {
	FetchQuotes(ctx context.Context) pricingDomain.QuoteSet
}

// FlashLoans turns decisions into submitted flash loans.
type FlashLoans interface {
	Prepare(decision domain.SpreadDecision) (*flashloanDomain.FlashLoanRequest, error)
	Submit(ctx context.Context, req *flashloanDomain.FlashLoanRequest) (*types.Receipt, error)
}

// BlockSource delivers new blocks.
type BlockSource interface {
	SubscribeBlocks(ctx context.Context) (<-chan *blockchainDomain.Block, error)
}
