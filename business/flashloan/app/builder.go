package app

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	arbDomain "github.com/fd1az/flashloan-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/flashloan-arbitrage/business/flashloan/domain"
	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
	"github.com/fd1az/flashloan-arbitrage/internal/apperror"
	"github.com/fd1az/flashloan-arbitrage/internal/asset"
)

// BuilderConfig holds the parts of a request that do not change per decision.
type BuilderConfig struct {
	ContractAddress common.Address
	Pool            common.Address
	HopOrder        domain.HopOrder
}

// BuildParams are the per-request parameters.
type BuildParams struct {
	LoanAmount asset.Amount // in the pair's base asset
	GasLimit   uint64
	GasPrice   *big.Int
	Signer     domain.Signer
}

// Builder turns an acting SpreadDecision into a FlashLoanRequest.
// It performs no I/O; the same inputs always produce equal requests.
type Builder struct {
	routers RouterLookup
	cfg     BuilderConfig
}

// NewBuilder creates a Builder.
func NewBuilder(routers RouterLookup, cfg BuilderConfig) *Builder {
	return &Builder{routers: routers, cfg: cfg}
}

// HopOrder returns the configured leg ordering.
func (b *Builder) HopOrder() domain.HopOrder {
	return b.cfg.HopOrder
}

// Build constructs the two-hop request: loan asset to quote asset on the
// first-leg venue, then back to the loan asset on the second-leg venue.
func (b *Builder) Build(decision arbDomain.SpreadDecision, params BuildParams) (*domain.FlashLoanRequest, error) {
	if !decision.Act {
		return nil, apperror.New(apperror.CodeInvalidDecision,
			apperror.WithContext("decision does not act"))
	}
	if err := validateParams(decision.Pair, params); err != nil {
		return nil, err
	}

	first, second := b.legs(decision)

	loan := decision.Pair.Base.Address()
	quote := decision.Pair.Quote.Address()

	hop1, err := b.hop(first, loan, quote)
	if err != nil {
		return nil, err
	}
	hop2, err := b.hop(second, quote, loan)
	if err != nil {
		return nil, err
	}

	req := &domain.FlashLoanRequest{
		ContractAddress:   b.cfg.ContractAddress,
		Pool:              b.cfg.Pool,
		LoanAsset:         loan,
		LoanAmount:        params.LoanAmount.Raw(),
		LoanAssetDecimals: decision.Pair.Base.Decimals(),
		Hops:              []domain.Hop{hop1, hop2},
		GasLimit:          params.GasLimit,
		GasPrice:          new(big.Int).Set(params.GasPrice),
		Signer:            params.Signer,
	}

	if err := req.Validate(); err != nil {
		return nil, apperror.New(apperror.CodeInvalidParameter,
			apperror.WithCause(err), apperror.WithContext("built request"))
	}
	return req, nil
}

func (b *Builder) legs(d arbDomain.SpreadDecision) (first, second pricingDomain.VenueID) {
	if b.cfg.HopOrder == domain.CheapFirst {
		return d.CheapVenue, d.RichVenue
	}
	return d.RichVenue, d.CheapVenue
}

func (b *Builder) hop(venue pricingDomain.VenueID, in, out common.Address) (domain.Hop, error) {
	if !venue.Valid() {
		return domain.Hop{}, apperror.New(apperror.CodeUnknownVenue,
			apperror.WithContext(venue.String()))
	}
	router, ok := b.routers.RouterFor(venue)
	if !ok {
		return domain.Hop{}, apperror.New(apperror.CodeUnknownVenue,
			apperror.WithContext("no router for "+venue.String()))
	}

	data, err := domain.EncodeRouter(router)
	if err != nil {
		return domain.Hop{}, apperror.New(apperror.CodeInvalidParameter,
			apperror.WithCause(err), apperror.WithContext("encode router"))
	}

	return domain.Hop{
		Venue:    venue,
		Protocol: venue.Protocol(),
		Router:   router,
		Path:     [2]common.Address{in, out},
		Data:     data,
	}, nil
}

func validateParams(pair pricingDomain.Pair, p BuildParams) error {
	invalid := func(msg string) error {
		return apperror.New(apperror.CodeInvalidParameter, apperror.WithContext(msg))
	}

	if pair.Base == nil || pair.Quote == nil {
		return invalid("decision has no pair")
	}
	if !p.LoanAmount.IsPositive() {
		return invalid("loan amount must be positive")
	}
	if !p.LoanAmount.Asset().Equals(pair.Base) {
		return invalid("loan amount is not in " + pair.Base.Symbol())
	}
	if p.GasLimit == 0 {
		return invalid("gas limit must be positive")
	}
	if p.GasPrice == nil || p.GasPrice.Sign() < 0 {
		return invalid("gas price must not be negative")
	}
	return nil
}
