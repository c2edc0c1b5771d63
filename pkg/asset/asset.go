// Package asset defines asset identifiers and the fixed-point arithmetic used
// to compare heterogeneous assets in a single USD unit of account.
package asset

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	// CanonicalDecimals is the precision of the USD unit of account.
	CanonicalDecimals uint8 = 6
	// PriceDecimals is the precision of every price returned by a feed.
	PriceDecimals uint8 = 8
	// DefaultNativeDecimals is the precision of the native asset unless configured otherwise.
	DefaultNativeDecimals uint8 = 18
)

// ID identifies an asset. The zero address is reserved for the native asset.
type ID = common.Address

// Native is the reserved identifier of the native asset.
var Native = ID{}

// IsNative reports whether id denotes the native asset.
func IsNative(id ID) bool {
	return id == Native
}

// ParseID parses a hex asset identifier. The literal "native" maps to Native.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "native") {
		return Native, nil
	}
	if !common.IsHexAddress(s) {
		return ID{}, fmt.Errorf("invalid asset id %q", s)
	}
	return common.HexToAddress(s), nil
}

// Label renders id for logs and metric labels.
func Label(id ID) string {
	if IsNative(id) {
		return "native"
	}
	return id.Hex()
}

// Normalize converts amount from source decimals to the canonical 6-decimal
// unit. Precision beyond the canonical unit is truncated (floor division), so
// 1234567 at 7 decimals becomes 123456.
func Normalize(amount *big.Int, source uint8) *big.Int {
	out := new(big.Int).Set(amount)
	switch {
	case source > CanonicalDecimals:
		return out.Quo(out, pow10(source-CanonicalDecimals))
	case source < CanonicalDecimals:
		return out.Mul(out, pow10(CanonicalDecimals-source))
	default:
		return out
	}
}

// USDValue returns the canonical USD value of amount priced at price
// (PriceDecimals fixed point). The result is floored.
func USDValue(amount *big.Int, decimals uint8, price *big.Int) *big.Int {
	v := Normalize(amount, decimals)
	v.Mul(v, price)
	return v.Quo(v, pow10(PriceDecimals))
}

// FormatUnits renders an integer amount with the given precision, e.g.
// FormatUnits(2000000000, 6) == "2000.000000".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		amount = new(big.Int)
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).StringFixed(int32(decimals))
}

// ParseUnits parses a human decimal string into integer units with the given
// precision. Excess fractional digits are rejected rather than rounded.
func ParseUnits(s string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse decimal: %w", err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	return scaled.BigInt(), nil
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
