package ethereum

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// rescale converts an integer with from implied decimals to one with to
// implied decimals, truncating when precision is lost.
func rescale(v *big.Int, from, to uint8) *big.Int {
	out := new(big.Int).Set(v)
	switch {
	case from > to:
		return out.Quo(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(from-to)), nil))
	case from < to:
		return out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(to-from)), nil))
	default:
		return out
	}
}

// parsePrivateKey loads a hex key, with or without 0x prefix.
func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	return key, nil
}
