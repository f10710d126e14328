package app_test

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	arbDomain "github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/app"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

var (
	pair     = pricingDomain.NewPair(asset.WETH, asset.USDC)
	contract = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pool     = common.HexToAddress("0x5333Eb1E32522F1893B7C9feA3c263807A02d561")
)

type fakeSigner struct{ addr common.Address }

func (s fakeSigner) Address() common.Address { return s.addr }

func (s fakeSigner) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

func defaultRouters() app.RouterTable {
	return app.RouterTableFromVenues([]pricingDomain.Venue{
		pricingDomain.DefaultVenue(pricingDomain.Sushiswap),
		pricingDomain.DefaultVenue(pricingDomain.Quickswap),
		pricingDomain.DefaultVenue(pricingDomain.Apeswap),
	})
}

func newBuilder(order domain.HopOrder) *app.Builder {
	return app.NewBuilder(defaultRouters(), app.BuilderConfig{
		ContractAddress: contract,
		Pool:            pool,
		HopOrder:        order,
	})
}

func decide(t *testing.T, sushi, quick, minSpread string) arbDomain.SpreadDecision {
	t.Helper()
	d, ok := arbDomain.Detect([]pricingDomain.Quote{
		{Venue: pricingDomain.Sushiswap, Pair: pair, Price: asset.MustParse(asset.USDC, sushi)},
		{Venue: pricingDomain.Quickswap, Pair: pair, Price: asset.MustParse(asset.USDC, quick)},
	}, asset.MustParse(asset.USDC, minSpread))
	if !ok {
		t.Fatal("Detect returned no decision")
	}
	return d
}

func params() app.BuildParams {
	return app.BuildParams{
		LoanAmount: asset.MustParse(asset.WETH, "0.5"),
		GasLimit:   3_000_000,
		GasPrice:   big.NewInt(300_000_000_000),
		Signer:     fakeSigner{addr: common.HexToAddress("0xBEEF")},
	}
}

func routerOf(id pricingDomain.VenueID) common.Address {
	return pricingDomain.DefaultVenue(id).Router
}

func TestBuilder_Build_SushiQuickScenario(t *testing.T) {
	d := decide(t, "3000.00", "3000.40", "0.20")
	if d.CheapVenue != pricingDomain.Sushiswap || d.RichVenue != pricingDomain.Quickswap || !d.Act {
		t.Fatalf("unexpected decision: cheap=%s rich=%s act=%v", d.CheapVenue, d.RichVenue, d.Act)
	}

	req, err := newBuilder(domain.RichFirst).Build(d, params())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if req.ContractAddress != contract || req.Pool != pool {
		t.Errorf("contract/pool = %s/%s", req.ContractAddress.Hex(), req.Pool.Hex())
	}
	if req.LoanAmount.Cmp(big.NewInt(500_000_000_000_000_000)) != 0 {
		t.Errorf("LoanAmount = %s, want 5e17", req.LoanAmount)
	}
	if req.LoanAssetDecimals != 18 || req.LoanAsset != asset.AddrWETHPolygon {
		t.Errorf("loan asset = %s/%d", req.LoanAsset.Hex(), req.LoanAssetDecimals)
	}
	if req.GasLimit != 3_000_000 || req.GasPrice.Cmp(big.NewInt(300e9)) != 0 {
		t.Errorf("gas = %d @ %s", req.GasLimit, req.GasPrice)
	}
	if len(req.Hops) != 2 {
		t.Fatalf("len(Hops) = %d, want 2", len(req.Hops))
	}

	want := []struct {
		venue    pricingDomain.VenueID
		protocol uint8
		in, out  common.Address
	}{
		{pricingDomain.Quickswap, 3, asset.AddrWETHPolygon, asset.AddrUSDCPolygon},
		{pricingDomain.Sushiswap, 2, asset.AddrUSDCPolygon, asset.AddrWETHPolygon},
	}
	for i, w := range want {
		h := req.Hops[i]
		if h.Venue != w.venue || h.Protocol != w.protocol {
			t.Errorf("hop %d venue = %s/%d, want %s/%d", i+1, h.Venue, h.Protocol, w.venue, w.protocol)
		}
		if h.Router != routerOf(w.venue) {
			t.Errorf("hop %d router = %s, want %s", i+1, h.Router.Hex(), routerOf(w.venue).Hex())
		}
		if h.In() != w.in || h.Out() != w.out {
			t.Errorf("hop %d path = %s->%s", i+1, h.In().Hex(), h.Out().Hex())
		}
		router, err := domain.DecodeRouter(h.Data)
		if err != nil || router != routerOf(w.venue) {
			t.Errorf("hop %d data decodes to %s (err %v)", i+1, router.Hex(), err)
		}
	}
}

func TestBuilder_Build_CheapFirst(t *testing.T) {
	req, err := newBuilder(domain.CheapFirst).Build(decide(t, "3000.00", "3000.40", "0.20"), params())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if req.Hops[0].Venue != pricingDomain.Sushiswap || req.Hops[1].Venue != pricingDomain.Quickswap {
		t.Errorf("hops = %s, %s; want sushiswap, quickswap", req.Hops[0].Venue, req.Hops[1].Venue)
	}
	if req.Hops[0].In() != asset.AddrWETHPolygon || req.Hops[1].Out() != asset.AddrWETHPolygon {
		t.Error("cheap_first request does not round-trip the loan asset")
	}
}

func TestBuilder_Build_Pure(t *testing.T) {
	b := newBuilder(domain.RichFirst)
	d := decide(t, "3000.00", "3000.40", "0.20")
	p := params()

	first, err := b.Build(d, p)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := b.Build(d, p)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("build %d differs from the first", i)
		}
	}

	first.GasPrice.SetInt64(1)
	if p.GasPrice.Int64() != 300e9 {
		t.Error("request aliases the caller's gas price")
	}
}

func TestBuilder_Build_Errors(t *testing.T) {
	acting := func(t *testing.T) arbDomain.SpreadDecision { return decide(t, "3000.00", "3000.40", "0.20") }

	tests := []struct {
		name     string
		routers  app.RouterTable
		decision func(t *testing.T) arbDomain.SpreadDecision
		params   func(p app.BuildParams) app.BuildParams
		wantCode apperror.Code
	}{
		{
			name:     "below_threshold_is_invalid_decision",
			decision: func(t *testing.T) arbDomain.SpreadDecision { return decide(t, "3000.00", "3000.05", "0.20") },
			wantCode: apperror.CodeInvalidDecision,
		},
		{
			name:     "zero_value_decision",
			decision: func(*testing.T) arbDomain.SpreadDecision { return arbDomain.SpreadDecision{} },
			wantCode: apperror.CodeInvalidDecision,
		},
		{
			name:     "zero_loan_amount",
			decision: acting,
			params: func(p app.BuildParams) app.BuildParams {
				p.LoanAmount = asset.Zero(asset.WETH)
				return p
			},
			wantCode: apperror.CodeInvalidParameter,
		},
		{
			name:     "loan_in_quote_asset",
			decision: acting,
			params: func(p app.BuildParams) app.BuildParams {
				p.LoanAmount = asset.MustParse(asset.USDC, "1500")
				return p
			},
			wantCode: apperror.CodeInvalidParameter,
		},
		{
			name:     "zero_gas_limit",
			decision: acting,
			params: func(p app.BuildParams) app.BuildParams {
				p.GasLimit = 0
				return p
			},
			wantCode: apperror.CodeInvalidParameter,
		},
		{
			name:     "nil_gas_price",
			decision: acting,
			params: func(p app.BuildParams) app.BuildParams {
				p.GasPrice = nil
				return p
			},
			wantCode: apperror.CodeInvalidParameter,
		},
		{
			name:     "venue_without_router",
			routers:  app.RouterTable{pricingDomain.Sushiswap: routerOf(pricingDomain.Sushiswap)},
			decision: acting,
			wantCode: apperror.CodeUnknownVenue,
		},
		{
			name: "venue_outside_table",
			decision: func(t *testing.T) arbDomain.SpreadDecision {
				d := acting(t)
				d.RichVenue = pricingDomain.VenueID(42)
				return d
			},
			wantCode: apperror.CodeUnknownVenue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routers := tt.routers
			if routers == nil {
				routers = defaultRouters()
			}
			p := params()
			if tt.params != nil {
				p = tt.params(p)
			}

			b := app.NewBuilder(routers, app.BuilderConfig{ContractAddress: contract, Pool: pool})
			req, err := b.Build(tt.decision(t), p)
			if err == nil {
				t.Fatalf("Build() = %+v, want error", req)
			}
			if req != nil {
				t.Error("Build() returned a request alongside an error")
			}
			if apperror.GetCode(err) != tt.wantCode {
				t.Errorf("code = %s, want %s (err: %v)", apperror.GetCode(err), tt.wantCode, err)
			}
		})
	}
}
