package uniswapv2

import (
	"context"
	"errors"
	"io"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
	"github.com/fd1az/flashloan-arbitrage/internal/logger"
)

type revertErr struct{ reason string }

func (e revertErr) Error() string          { return "execution reverted: " + e.reason }
func (e revertErr) ErrorData() interface{} { return e.reason }

// fakeChain answers factory, pair and router reads from in-memory state.
type fakeChain struct {
	t *testing.T

	factoryABI, pairABI, routerABI abi.ABI

	mu        sync.Mutex
	pairs     map[common.Address]common.Address // factory -> pair
	reserves  map[common.Address][2]*big.Int    // pair -> reserve0, reserve1
	routerErr error
	callErr   error
	calls     map[string]int
	lastQuote []any
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()
	mustABI := func(s string) abi.ABI {
		a, err := abi.JSON(strings.NewReader(s))
		if err != nil {
			t.Fatal(err)
		}
		return a
	}
	return &fakeChain{
		t:          t,
		factoryABI: mustABI(FactoryABI),
		pairABI:    mustABI(PairABI),
		routerABI:  mustABI(RouterABI),
		pairs:      make(map[common.Address]common.Address),
		reserves:   make(map[common.Address][2]*big.Int),
		calls:      make(map[string]int),
	}
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.callErr != nil {
		return nil, f.callErr
	}

	selector, args := msg.Data[:4], msg.Data[4:]
	switch {
	case string(selector) == string(f.factoryABI.Methods["getPair"].ID):
		f.calls["getPair"]++
		return f.factoryABI.Methods["getPair"].Outputs.Pack(f.pairs[*msg.To])

	case string(selector) == string(f.pairABI.Methods["getReserves"].ID):
		f.calls["getReserves"]++
		r := f.reserves[*msg.To]
		return f.pairABI.Methods["getReserves"].Outputs.Pack(r[0], r[1], uint32(1700000000))

	case string(selector) == string(f.routerABI.Methods["quote"].ID):
		f.calls["quote"]++
		if f.routerErr != nil {
			return nil, f.routerErr
		}
		in, err := f.routerABI.Methods["quote"].Inputs.Unpack(args)
		if err != nil {
			f.t.Fatalf("unpack quote args: %v", err)
		}
		f.lastQuote = in
		amountA, reserveA, reserveB := in[0].(*big.Int), in[1].(*big.Int), in[2].(*big.Int)
		amountB := new(big.Int).Div(new(big.Int).Mul(amountA, reserveB), reserveA)
		return f.routerABI.Methods["quote"].Outputs.Pack(amountB)
	}

	f.t.Fatalf("unexpected call to %s", msg.To.Hex())
	return nil, nil
}

var testPool = common.HexToAddress("0x34965ba0ac2451A34a0471F04CCa3F990b8dea27")

func newTestProvider(t *testing.T, chain *fakeChain) *Provider {
	t.Helper()
	p, err := NewProvider(chain, nil, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	return p
}

func wethUSDC() domain.Pair {
	return domain.NewPair(asset.WETH, asset.USDC)
}

func TestGetQuote_UsesRouterQuoteWithOrderedReserves(t *testing.T) {
	chain := newFakeChain(t)
	venue := domain.DefaultVenue(domain.Sushiswap)
	chain.pairs[venue.Factory] = testPool

	// USDC sorts first on Polygon: reserve0 is USDC, reserve1 is WETH.
	usdcReserve := big.NewInt(3_000_000_000_000) // 3,000,000 USDC
	wethReserve := new(big.Int).Mul(big.NewInt(1000), asset.WETH.Unit())
	chain.reserves[testPool] = [2]*big.Int{usdcReserve, wethReserve}

	p := newTestProvider(t, chain)
	q, err := p.GetQuote(context.Background(), venue, wethUSDC())
	if err != nil {
		t.Fatalf("GetQuote() error = %v", err)
	}

	if q.Venue != domain.Sushiswap || q.Pool != testPool {
		t.Errorf("quote venue/pool = %s/%s", q.Venue, q.Pool.Hex())
	}
	if q.Price.StringFixed(2) != "3000.00 USDC" {
		t.Errorf("price = %s, want 3000.00 USDC", q.Price)
	}
	if q.Reserves.Base.Cmp(wethReserve) != 0 || q.Reserves.Quote.Cmp(usdcReserve) != 0 {
		t.Errorf("reserves = %s/%s", q.Reserves.Base, q.Reserves.Quote)
	}

	// router.quote(1e18, reserveBase, reserveQuote)
	if chain.lastQuote[0].(*big.Int).Cmp(asset.WETH.Unit()) != 0 {
		t.Errorf("amountA = %s, want 1e18", chain.lastQuote[0])
	}
	if chain.lastQuote[1].(*big.Int).Cmp(wethReserve) != 0 {
		t.Errorf("reserveA = %s, want WETH reserve", chain.lastQuote[1])
	}
}

func TestGetQuote_CachesPairAddress(t *testing.T) {
	chain := newFakeChain(t)
	venue := domain.DefaultVenue(domain.Quickswap)
	chain.pairs[venue.Factory] = testPool
	chain.reserves[testPool] = [2]*big.Int{big.NewInt(3_000_000_000), asset.WETH.Unit()}

	p := newTestProvider(t, chain)
	for i := 0; i < 3; i++ {
		if _, err := p.GetQuote(context.Background(), venue, wethUSDC()); err != nil {
			t.Fatalf("GetQuote() error = %v", err)
		}
	}

	if chain.calls["getPair"] != 1 {
		t.Errorf("getPair called %d times, want 1", chain.calls["getPair"])
	}
	if chain.calls["getReserves"] != 3 {
		t.Errorf("getReserves called %d times, want 3", chain.calls["getReserves"])
	}
}

func TestGetQuote_Errors(t *testing.T) {
	venue := domain.DefaultVenue(domain.Apeswap)

	tests := []struct {
		name     string
		setup    func(c *fakeChain)
		wantCode apperror.Code
	}{
		{
			name:     "pool_not_found",
			setup:    func(c *fakeChain) {},
			wantCode: apperror.CodePoolNotFound,
		},
		{
			name:     "connection_error",
			setup:    func(c *fakeChain) { c.callErr = errors.New("dial tcp 127.0.0.1:8545: connection refused") },
			wantCode: apperror.CodeConnectionError,
		},
		{
			name: "empty_pool",
			setup: func(c *fakeChain) {
				c.pairs[venue.Factory] = testPool
				c.reserves[testPool] = [2]*big.Int{big.NewInt(0), big.NewInt(0)}
			},
			wantCode: apperror.CodeInvalidQuote,
		},
		{
			name: "router_revert",
			setup: func(c *fakeChain) {
				c.pairs[venue.Factory] = testPool
				c.reserves[testPool] = [2]*big.Int{big.NewInt(1), big.NewInt(1)}
				c.routerErr = revertErr{"UniswapV2Library: INSUFFICIENT_LIQUIDITY"}
			},
			wantCode: apperror.CodeContractCallFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain(t)
			tt.setup(chain)

			_, err := newTestProvider(t, chain).GetQuote(context.Background(), venue, wethUSDC())
			if apperror.GetCode(err) != tt.wantCode {
				t.Errorf("code = %s, want %s (err: %v)", apperror.GetCode(err), tt.wantCode, err)
			}
		})
	}
}

func TestGetQuote_BreakerOpensPerVenue(t *testing.T) {
	chain := newFakeChain(t)
	chain.callErr = errors.New("connection reset")
	p := newTestProvider(t, chain)

	sushi := domain.DefaultVenue(domain.Sushiswap)
	for i := 0; i < 5; i++ {
		_, _ = p.GetQuote(context.Background(), sushi, wethUSDC())
	}

	_, err := p.GetQuote(context.Background(), sushi, wethUSDC())
	if !errors.Is(err, apperror.New(apperror.CodeConnectionError)) {
		t.Fatalf("err = %v, want connection error", err)
	}
	var appErr *apperror.AppError
	if !errors.As(errors.Unwrap(err), &appErr) || appErr.Code != apperror.CodeCircuitOpen {
		t.Errorf("cause = %v, want circuit open", errors.Unwrap(err))
	}

	// Another venue still reaches the node.
	chain.callErr = nil
	quick := domain.DefaultVenue(domain.Quickswap)
	chain.pairs[quick.Factory] = testPool
	chain.reserves[testPool] = [2]*big.Int{big.NewInt(3_000_000_000), asset.WETH.Unit()}
	if _, err := p.GetQuote(context.Background(), quick, wethUSDC()); err != nil {
		t.Errorf("quickswap should be unaffected, got %v", err)
	}
}
