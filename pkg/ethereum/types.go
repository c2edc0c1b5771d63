package ethereum

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chainsafe/vault-ledger/pkg/transfer"
)

var (
	// ErrNativePull is returned when asked to pull the native asset; native
	// value can only arrive with the depositor's own transaction.
	ErrNativePull = errors.New("native asset cannot be pulled from a wallet")
	// ErrTokenRejected is returned when a token answered false instead of reverting.
	ErrTokenRejected = errors.New("token rejected transfer")
	// ErrTxFailed is returned when a transaction was mined with failure status.
	ErrTxFailed = errors.New("transaction failed")
	// ErrTxPending is returned when a broadcast transaction has no receipt
	// within the receipt timeout. It may still be mined.
	ErrTxPending = fmt.Errorf("transaction not mined in time: %w", transfer.ErrPending)
	// ErrNoCustodyKey is returned for transfers on a read-only client.
	ErrNoCustodyKey = errors.New("custody key not configured")
)

// Backend is the chain access the client needs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}
