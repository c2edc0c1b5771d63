package vault

import (
	"errors"

	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/transfer"
)

var (
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrCapacityExceeded         = errors.New("capacity exceeded")
	ErrWithdrawalLimitExceeded  = errors.New("withdrawal limit exceeded")
	ErrTransferFailed           = errors.New("transfer failed")
	ErrDirectTransferNotAllowed = errors.New("direct transfer not allowed")
	ErrInvalidConfiguration     = errors.New("invalid configuration")
	ErrLedgerInconsistent       = errors.New("ledger inconsistent")

	// Re-exported so callers can match every vault failure against one package.
	ErrInvalidAsset        = registry.ErrInvalidAsset
	ErrInvalidOracle       = registry.ErrInvalidOracle
	ErrAssetNotSupported   = registry.ErrAssetNotSupported
	ErrOracleNotConfigured = oracle.ErrOracleNotConfigured
	ErrStalePrice          = oracle.ErrStalePrice
	ErrInvalidPrice        = oracle.ErrInvalidPrice
	ErrUnauthorized        = auth.ErrUnauthorized
	// ErrTransferPending marks a transfer with an unknown outcome. The
	// ledger keeps the operation's effects instead of rolling them back.
	ErrTransferPending = transfer.ErrPending
)

// statusOf maps an operation error to a short metric label.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrWithdrawalLimitExceeded):
		return "withdrawal_limit"
	case errors.Is(err, ErrTransferPending):
		return "transfer_pending"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrDirectTransferNotAllowed):
		return "direct_transfer"
	case errors.Is(err, ErrAssetNotSupported):
		return "not_supported"
	case errors.Is(err, ErrOracleNotConfigured):
		return "oracle_not_configured"
	case errors.Is(err, ErrStalePrice), errors.Is(err, ErrInvalidPrice):
		return "bad_price"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAsset), errors.Is(err, ErrInvalidOracle):
		return "invalid_input"
	default:
		return "error"
	}
}
