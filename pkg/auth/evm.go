package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const loginPrefix = "vault-ledger login "

// ErrStaleLogin is returned for a login message signed outside the accepted window.
var ErrStaleLogin = errors.New("login message expired")

// VerifyEIP191Signature verifies an EIP-191 personal_sign signature
// Returns the recovered Ethereum address if valid
func VerifyEIP191Signature(message, signature string) (common.Address, error) {
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature hex: %w", err)
	}

	if len(sigBytes) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65, got %d", len(sigBytes))
	}

	// v can be 0, 1, 27, or 28 - normalize to 0 or 1
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	pubKey, err := crypto.SigToPub(personalHash(message), sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

func personalHash(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}

// LoginMessage is the text a wallet signs to open a session at t.
func LoginMessage(t time.Time) string {
	return loginPrefix + strconv.FormatInt(t.Unix(), 10)
}

// VerifyLogin checks a signed login message and returns the signer. The
// embedded timestamp must lie within window of now.
func VerifyLogin(message, signature string, now time.Time, window time.Duration) (common.Address, error) {
	ts, ok := strings.CutPrefix(message, loginPrefix)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected login message %q", message)
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid login timestamp: %w", err)
	}
	age := now.Sub(time.Unix(unix, 0))
	if age > window || age < -window {
		return common.Address{}, ErrStaleLogin
	}
	return VerifyEIP191Signature(message, signature)
}
