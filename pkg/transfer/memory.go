// Package transfer provides an in-memory custody transport: wallets and a
// custody account per asset, kept in process. It backs local runs and tests.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/chainsafe/vault-ledger/pkg/asset"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrPending reports a transfer that was submitted but whose outcome is
	// not known yet. Transports wrap it; it is not a failure.
	ErrPending = errors.New("transfer pending")
)

// Hook runs after a transfer moved funds, outside the transport's lock. An
// error undoes the move and fails the transfer, the way a reverting
// recipient would.
type Hook func(ctx context.Context, id, party asset.ID, amount *big.Int) error

// Memory moves balances between in-process wallets and custody.
type Memory struct {
	mu      sync.Mutex
	wallets map[asset.ID]map[asset.ID]*big.Int
	custody map[asset.ID]*big.Int
	onIn    Hook
	onOut   Hook
	fail    error
}

// NewMemory creates an empty transport.
func NewMemory() *Memory {
	return &Memory{
		wallets: make(map[asset.ID]map[asset.ID]*big.Int),
		custody: make(map[asset.ID]*big.Int),
	}
}

// Mint credits amount of id to party's wallet.
func (m *Memory) Mint(party, id asset.ID, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallet(party, id).Add(m.wallet(party, id), amount)
}

// OnTransferIn sets the hook run after every pull.
func (m *Memory) OnTransferIn(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onIn = h
}

// OnTransferOut sets the hook run after every payout.
func (m *Memory) OnTransferOut(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOut = h
}

// FailWith makes every transfer fail with err until cleared with nil.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// WalletBalance returns party's wallet balance of id.
func (m *Memory) WalletBalance(party, id asset.ID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.wallet(party, id))
}

// Custody returns the amount of id held in custody.
func (m *Memory) Custody(id asset.ID) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.custodyOf(id))
}

// TransferIn moves amount of id from the wallet of from into custody.
func (m *Memory) TransferIn(ctx context.Context, id, from asset.ID, amount *big.Int) error {
	hook, err := m.move(id, from, amount, true)
	if err != nil {
		return err
	}
	if hook != nil {
		if err := hook(ctx, id, from, amount); err != nil {
			m.undo(id, from, amount, true)
			return err
		}
	}
	return nil
}

// TransferOut moves amount of id from custody into the wallet of to.
func (m *Memory) TransferOut(ctx context.Context, id, to asset.ID, amount *big.Int) error {
	hook, err := m.move(id, to, amount, false)
	if err != nil {
		return err
	}
	if hook != nil {
		if err := hook(ctx, id, to, amount); err != nil {
			m.undo(id, to, amount, false)
			return err
		}
	}
	return nil
}

func (m *Memory) move(id, party asset.ID, amount *big.Int, in bool) (Hook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive amount %v", amount)
	}

	src, dst := m.custodyOf(id), m.wallet(party, id)
	hook := m.onOut
	if in {
		src, dst = dst, src
		hook = m.onIn
	}
	if src.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: %s of %s, have %s", ErrInsufficientFunds, amount, asset.Label(id), src)
	}
	src.Sub(src, amount)
	dst.Add(dst, amount)
	return hook, nil
}

func (m *Memory) undo(id, party asset.ID, amount *big.Int, in bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, dst := m.custodyOf(id), m.wallet(party, id)
	if in {
		src, dst = dst, src
	}
	dst.Sub(dst, amount)
	src.Add(src, amount)
}

func (m *Memory) wallet(party, id asset.ID) *big.Int {
	w, ok := m.wallets[party]
	if !ok {
		w = make(map[asset.ID]*big.Int)
		m.wallets[party] = w
	}
	b, ok := w[id]
	if !ok {
		b = new(big.Int)
		w[id] = b
	}
	return b
}

func (m *Memory) custodyOf(id asset.ID) *big.Int {
	b, ok := m.custody[id]
	if !ok {
		b = new(big.Int)
		m.custody[id] = b
	}
	return b
}
