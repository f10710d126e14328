package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: different assets")
	ErrNegativeResult  = errors.New("asset: result would be negative")
	ErrTooManyDecimals = errors.New("asset: more fractional digits than the token supports")
)

// Amount is an immutable, non-negative quantity of a token in its smallest
// unit (wei for WETH, 1e-6 for USDC).
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw into a new Amount. It panics on nil or negative input.
func NewAmount(a *Asset, raw *big.Int) Amount {
	if a == nil {
		panic(ErrNilAsset)
	}
	if raw == nil || raw.Sign() < 0 {
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: a}
}

// Zero returns a zero amount of a.
func Zero(a *Asset) Amount {
	return NewAmount(a, new(big.Int))
}

// NewAmountFromInt64 creates an Amount from a raw int64.
func NewAmountFromInt64(a *Asset, raw int64) Amount {
	return NewAmount(a, big.NewInt(raw))
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Asset() *Asset { return a.asset }

func (a Amount) IsZero() bool { return a.raw == nil || a.raw.Sign() == 0 }

func (a Amount) IsPositive() bool { return a.raw != nil && a.raw.Sign() > 0 }

// Add returns a+b.
func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	return NewAmount(a.asset, new(big.Int).Add(a.raw, b.raw)), nil
}

// Sub returns a-b; it fails rather than going negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.raw.Cmp(b.raw) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return NewAmount(a.asset, new(big.Int).Sub(a.raw, b.raw)), nil
}

// MustSub is Sub for callers that have already ordered the operands.
func (a Amount) MustSub(b Amount) Amount {
	d, err := a.Sub(b)
	if err != nil {
		panic(err)
	}
	return d
}

// Cmp returns -1, 0 or 1.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameAsset(b); err != nil {
		return 0, err
	}
	return a.raw.Cmp(b.raw), nil
}

// Equals reports same asset and same raw value.
func (a Amount) Equals(b Amount) bool {
	if a.sameAsset(b) != nil {
		return false
	}
	return a.raw.Cmp(b.raw) == 0
}

// GreaterThan reports a > b. Different assets are never greater.
func (a Amount) GreaterThan(b Amount) bool {
	c, err := a.Cmp(b)
	return err == nil && c > 0
}

// LessThan reports a < b. Different assets are never less.
func (a Amount) LessThan(b Amount) bool {
	c, err := a.Cmp(b)
	return err == nil && c < 0
}

// ToDecimal converts to whole-token units for display.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.decimals))
}

// ToFloat64 is for metrics and logs only.
func (a Amount) ToFloat64() float64 {
	f, _ := a.ToDecimal().Float64()
	return f
}

// ParseDecimal converts whole-token units into an Amount. Fractions finer
// than the token's decimals are rejected.
func ParseDecimal(a *Asset, d decimal.Decimal) (Amount, error) {
	if a == nil {
		return Amount{}, ErrNilAsset
	}
	if d.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}

	scaled := d.Shift(int32(a.decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, ErrTooManyDecimals
	}
	return NewAmount(a, scaled.BigInt()), nil
}

// ParseString parses a decimal string such as "0.5" or "3000.40".
func ParseString(a *Asset, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid decimal %q: %w", s, err)
	}
	return ParseDecimal(a, d)
}

// MustParse is ParseString for constants and tests.
func MustParse(a *Asset, s string) Amount {
	amt, err := ParseString(a, s)
	if err != nil {
		panic(err)
	}
	return amt
}

// String renders e.g. "0.5 WETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return a.ToDecimal().String() + " " + a.asset.symbol
}

// StringFixed renders with a fixed number of fractional digits.
func (a Amount) StringFixed(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}
	return a.ToDecimal().StringFixed(places) + " " + a.asset.symbol
}

func (a Amount) sameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.Equals(b.asset) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.symbol, b.asset.symbol)
	}
	return nil
}
