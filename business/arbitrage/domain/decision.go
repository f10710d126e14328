// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"github.com/shopspring/decimal"

	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

// SpreadDecision is the outcome of comparing venue quotes. Spread is always
// RichPrice - CheapPrice and every compared price lies between the two.
type SpreadDecision struct {
	Pair       pricingDomain.Pair
	CheapVenue pricingDomain.VenueID
	RichVenue  pricingDomain.VenueID
	CheapPrice asset.Amount
	RichPrice  asset.Amount
	Spread     asset.Amount
	MinSpread  asset.Amount
	Act        bool
}

// Detect picks the cheapest and richest quotes and decides whether the gap
// between them is worth a flash loan.
//
// Ties keep the first quote encountered, so with equal prices the earlier
// venue in configured order is both cheap and rich. Act is set only when
// the spread is strictly greater than minSpread. Fewer than two quotes, or
// quotes and minSpread priced in different assets, yield no decision.
func Detect(quotes []pricingDomain.Quote, minSpread asset.Amount) (SpreadDecision, bool) {
	if len(quotes) < 2 {
		return SpreadDecision{}, false
	}

	cheap, rich := 0, 0
	for i := 1; i < len(quotes); i++ {
		c, err := quotes[i].Price.Cmp(quotes[cheap].Price)
		if err != nil {
			return SpreadDecision{}, false
		}
		if c < 0 {
			cheap = i
		}
		if c, _ = quotes[i].Price.Cmp(quotes[rich].Price); c > 0 {
			rich = i
		}
	}

	spread := quotes[rich].Price.MustSub(quotes[cheap].Price)
	gap, err := spread.Cmp(minSpread)
	if err != nil {
		return SpreadDecision{}, false
	}

	return SpreadDecision{
		Pair:       quotes[cheap].Pair,
		CheapVenue: quotes[cheap].Venue,
		RichVenue:  quotes[rich].Venue,
		CheapPrice: quotes[cheap].Price,
		RichPrice:  quotes[rich].Price,
		Spread:     spread,
		MinSpread:  minSpread,
		Act:        gap > 0,
	}, true
}

// BasisPoints returns the spread relative to the cheap price, in bps.
func (d SpreadDecision) BasisPoints() decimal.Decimal {
	cheap := d.CheapPrice.ToDecimal()
	if cheap.IsZero() {
		return decimal.Zero
	}
	return d.Spread.ToDecimal().Div(cheap).Mul(decimal.NewFromInt(10_000))
}

// Flat reports whether every compared price was identical.
func (d SpreadDecision) Flat() bool {
	return d.CheapVenue == d.RichVenue
}
