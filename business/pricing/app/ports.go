// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
)

// QuoteProvider reads one venue's pool state and returns its price for one
// whole base token.
//
// Implementations return CodePoolNotFound when the venue has no pool for the
// pair and CodeConnectionError when the node cannot be reached.
type QuoteProvider interface {
	GetQuote(ctx context.Context, venue domain.Venue, pair domain.Pair) (*domain.Quote, error)
}
