package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDPolygon  = 137
)

// Polygon PoS token addresses
var (
	AddrWETHPolygon   = common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619")
	AddrUSDCPolygon   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	AddrWMATICPolygon = common.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270")
)

// Well-known Polygon tokens
var (
	WETH   = NewToken(ChainIDPolygon, AddrWETHPolygon, "WETH", "Wrapped Ether", 18)
	USDC   = NewToken(ChainIDPolygon, AddrUSDCPolygon, "USDC", "USD Coin (PoS)", 6)
	WMATIC = NewToken(ChainIDPolygon, AddrWMATICPolygon, "WMATIC", "Wrapped Matic", 18)
)

// DefaultRegistry returns a registry holding the well-known Polygon tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(WETH)
	r.Register(USDC)
	r.Register(WMATIC)
	return r
}
