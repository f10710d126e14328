// Package domain contains the core domain types for the flashloan context.
package domain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	pricingDomain "github.com/fd1az/flashloan-arbitrage/business/pricing/domain"
)

// Signer signs transactions on behalf of one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Hop is one swap inside the flash loan: Path[0] in, Path[1] out, executed
// on Router. Data is the router address ABI-encoded as a single address.
type Hop struct {
	Venue    pricingDomain.VenueID
	Protocol uint8
	Router   common.Address
	Path     [2]common.Address
	Data     []byte
}

// In returns the token the hop sells.
func (h Hop) In() common.Address { return h.Path[0] }

// Out returns the token the hop buys.
func (h Hop) Out() common.Address { return h.Path[1] }

// FlashLoanRequest is everything the flash loan contract call needs.
type FlashLoanRequest struct {
	ContractAddress   common.Address
	Pool              common.Address
	LoanAsset         common.Address
	LoanAmount        *big.Int
	LoanAssetDecimals uint8
	Hops              []Hop
	GasLimit          uint64
	GasPrice          *big.Int
	Signer            Signer
}

var addressArgs = abi.Arguments{{Type: mustType("address")}}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// EncodeRouter returns abi.encode(address router), the hop payload the
// contract decodes to find the router to swap through.
func EncodeRouter(router common.Address) ([]byte, error) {
	return addressArgs.Pack(router)
}

// DecodeRouter is the inverse of EncodeRouter.
func DecodeRouter(data []byte) (common.Address, error) {
	vals, err := addressArgs.Unpack(data)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("hop data decodes to %T", vals[0])
	}
	return addr, nil
}

// Validate checks the request is well formed: the hops form a chain that
// starts and ends in the loan asset, and every hop names a router and
// carries its encoding. The contract address is left to the submitter so
// dry runs can build without one.
func (r *FlashLoanRequest) Validate() error {
	if r.Pool == (common.Address{}) {
		return errors.New("missing flash loan pool")
	}
	if r.LoanAmount == nil || r.LoanAmount.Sign() <= 0 {
		return errors.New("loan amount must be positive")
	}
	if r.GasLimit == 0 {
		return errors.New("gas limit must be positive")
	}
	if r.GasPrice == nil || r.GasPrice.Sign() < 0 {
		return errors.New("gas price must not be negative")
	}
	if len(r.Hops) == 0 {
		return errors.New("no hops")
	}

	if r.Hops[0].In() != r.LoanAsset {
		return fmt.Errorf("first hop sells %s, not the loan asset", r.Hops[0].In().Hex())
	}
	for i, h := range r.Hops {
		if h.Router == (common.Address{}) {
			return fmt.Errorf("hop %d: zero router", i+1)
		}
		if h.In() == h.Out() {
			return fmt.Errorf("hop %d: path swaps a token for itself", i+1)
		}
		router, err := DecodeRouter(h.Data)
		if err != nil || router != h.Router {
			return fmt.Errorf("hop %d: data does not encode router %s", i+1, h.Router.Hex())
		}
		if i > 0 && r.Hops[i-1].Out() != h.In() {
			return fmt.Errorf("hop %d: input does not match hop %d output", i+1, i)
		}
	}
	if last := r.Hops[len(r.Hops)-1]; last.Out() != r.LoanAsset {
		return fmt.Errorf("last hop buys %s, not the loan asset", last.Out().Hex())
	}
	return nil
}
