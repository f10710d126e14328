// Package asset models ERC20 tokens and exact token amounts.
// Amounts are big.Int in the token's smallest unit; decimal.Decimal only
// appears at the edges (config parsing, display).
package asset

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Asset is an ERC20 token on a given chain. Identity is (chain, address);
// the symbol is display metadata.
type Asset struct {
	chainID  uint64
	address  common.Address
	symbol   string
	name     string
	decimals uint8
}

// NewToken creates a token asset.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	if address == (common.Address{}) {
		panic("asset: zero token address")
	}
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 36 {
		panic("asset: suspicious decimals (>36)")
	}

	return &Asset{
		chainID:  chainID,
		address:  address,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
	}
}

func (a *Asset) ChainID() uint64 { return a.chainID }

func (a *Asset) Address() common.Address { return a.address }

func (a *Asset) Symbol() string { return a.symbol }

func (a *Asset) Decimals() uint8 { return a.decimals }

// Name returns the long name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Unit returns 10^decimals, the raw value of one whole token.
func (a *Asset) Unit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.decimals)), nil)
}

// Equals compares chain and address.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.chainID == other.chainID && a.address == other.address
}

// SortsBefore reports whether a is token0 of an a/other pair, following the
// Uniswap V2 ordering by address.
func (a *Asset) SortsBefore(other *Asset) bool {
	return a.address.Cmp(other.address) < 0
}

func (a *Asset) String() string {
	return a.symbol
}

// Key is a printable identity, e.g. "137/0x7ceB...".
func (a *Asset) Key() string {
	return fmt.Sprintf("%d/%s", a.chainID, a.address.Hex())
}
