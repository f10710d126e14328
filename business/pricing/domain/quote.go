package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

// Pair is the traded pair. Prices are quoted as Quote per one Base.
type Pair struct {
	Base  *asset.Asset // WETH, also the loan asset
	Quote *asset.Asset // USDC
}

// NewPair creates a new trading pair.
func NewPair(base, quote *asset.Asset) Pair {
	if base == nil || quote == nil {
		panic("pricing: nil asset in pair")
	}
	return Pair{Base: base, Quote: quote}
}

// String returns the pair symbol (e.g., "WETH-USDC").
func (p Pair) String() string {
	return p.Base.Symbol() + "-" + p.Quote.Symbol()
}

// Reserves holds a pool's reserves mapped onto the pair.
type Reserves struct {
	Base  *big.Int
	Quote *big.Int
}

// Quote is one venue's price for one whole Base token, as returned by the
// venue's router.
type Quote struct {
	Venue    VenueID
	Pair     Pair
	Pool     common.Address
	Price    asset.Amount // in Pair.Quote units
	Reserves Reserves
}

// NewQuote creates a new quote.
func NewQuote(venue VenueID, pair Pair, pool common.Address, price asset.Amount, reserves Reserves) Quote {
	return Quote{
		Venue:    venue,
		Pair:     pair,
		Pool:     pool,
		Price:    price,
		Reserves: reserves,
	}
}

// VenueError records a venue that failed to quote.
type VenueError struct {
	Venue VenueID
	Err   error
}

func (e VenueError) Error() string {
	return e.Venue.String() + ": " + e.Err.Error()
}

func (e VenueError) Unwrap() error {
	return e.Err
}

// QuoteSet is the joined result of one fan-out: successful quotes in
// configured venue order plus the venues that failed.
type QuoteSet struct {
	Pair      Pair
	Quotes    []Quote
	Failures  []VenueError
	FetchedAt time.Time
	Latency   time.Duration
}
