// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// VenueID identifies a Uniswap V2 style DEX. The set is closed: values
// outside the venue table are invalid.
type VenueID uint8

const (
	Uniswap VenueID = iota
	Sushiswap
	Quickswap
	Apeswap

	venueCount
)

// VenueInfo is the static description of a venue.
type VenueInfo struct {
	ID   VenueID
	Name string
	// Protocol is the hop discriminator understood by the flash loan
	// contract (0 UniswapV2, 1 UniswapV3, 2 Sushiswap, 3 Quickswap, 6 Apeswap).
	Protocol uint8
	// Default Polygon deployment.
	Router  common.Address
	Factory common.Address
}

var venues = [venueCount]VenueInfo{
	Uniswap: {
		ID: Uniswap, Name: "uniswap", Protocol: 0,
		Router:  common.HexToAddress("0xedf6066a2b290C185783862C7F4776A2C8077AD1"),
		Factory: common.HexToAddress("0x9e5A52f57b3038F1B8EeE45F28b3C1967e22799C"),
	},
	Sushiswap: {
		ID: Sushiswap, Name: "sushiswap", Protocol: 2,
		Router:  common.HexToAddress("0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"),
		Factory: common.HexToAddress("0xc35DADB65012eC5796536bD9864eD8773aBc74C4"),
	},
	Quickswap: {
		ID: Quickswap, Name: "quickswap", Protocol: 3,
		Router:  common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"),
		Factory: common.HexToAddress("0x5757371414417b8C6CAad45bAeF941aBc7d3Ab32"),
	},
	Apeswap: {
		ID: Apeswap, Name: "apeswap", Protocol: 6,
		Router:  common.HexToAddress("0xC0788A3aD43d79aa53B09c2EaCc313A787d1d607"),
		Factory: common.HexToAddress("0xCf083Be4164828f00cAE704EC15a36D711491284"),
	},
}

// Valid reports whether v is in the venue table.
func (v VenueID) Valid() bool {
	return v < venueCount
}

// Info returns the table entry for v.
func (v VenueID) Info() (VenueInfo, bool) {
	if !v.Valid() {
		return VenueInfo{}, false
	}
	return venues[v], true
}

// Protocol returns the flash loan contract's protocol id for v.
func (v VenueID) Protocol() uint8 {
	return venues[v].Protocol
}

func (v VenueID) String() string {
	if !v.Valid() {
		return fmt.Sprintf("venue(%d)", uint8(v))
	}
	return venues[v].Name
}

// MarshalText renders the venue name in logs and JSON.
func (v VenueID) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ParseVenue resolves a case-insensitive venue name.
func ParseVenue(name string) (VenueID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, info := range venues {
		if info.Name == n {
			return info.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown venue %q", name)
}

// AllVenues returns every venue in table order.
func AllVenues() []VenueID {
	out := make([]VenueID, 0, venueCount)
	for v := VenueID(0); v < venueCount; v++ {
		out = append(out, v)
	}
	return out
}

// Venue is a venue with the contract addresses actually used at runtime.
type Venue struct {
	ID      VenueID
	Router  common.Address
	Factory common.Address
}

// DefaultVenue returns v with its default Polygon addresses.
func DefaultVenue(v VenueID) Venue {
	info := venues[v]
	return Venue{ID: v, Router: info.Router, Factory: info.Factory}
}

func (v Venue) String() string {
	return v.ID.String()
}
