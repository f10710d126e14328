// Package app contains application services and port definitions for the flashloan context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
)

// RouterLookup resolves the router a venue swaps through.
type RouterLookup interface {
	RouterFor(venue pricingDomain.VenueID) (common.Address, bool)
}

// Submitter signs, broadcasts and waits for a flash loan transaction.
// Implementations broadcast at most once.
type Submitter interface {
	Submit(ctx context.Context, req *domain.FlashLoanRequest) (*types.Receipt, error)
}

// RouterTable is a static RouterLookup.
type RouterTable map[pricingDomain.VenueID]common.Address

// RouterFor implements RouterLookup.
func (t RouterTable) RouterFor(venue pricingDomain.VenueID) (common.Address, bool) {
	r, ok := t[venue]
	if !ok || r == (common.Address{}) {
		return common.Address{}, false
	}
	return r, true
}

// RouterTableFromVenues builds a RouterTable from configured venues.
func RouterTableFromVenues(venues []pricingDomain.Venue) RouterTable {
	t := make(RouterTable, len(venues))
	for _, v := range venues {
		t[v.ID] = v.Router
	}
	return t
}
