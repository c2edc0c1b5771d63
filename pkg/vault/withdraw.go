package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	"github.com/chainsafe/vault-ledger/pkg/asset"
)

// Withdraw debits amount of id from user and sends it out of custody. Every
// effect is committed before TransferOut runs, so a reentrant call sees the
// reduced balance. If the transfer fails, this withdrawal's effects are
// rolled back; reentrant operations that completed in the meantime stand. A
// pending transfer may still pay out, so its debit is kept and the event is
// marked Pending.
//
// The USD value released is the entry's book value pro rata, which needs no
// price: assets that lost support or their feed remain withdrawable.
func (v *Vault) Withdraw(ctx context.Context, user, id asset.ID, amount *big.Int) (ev Event, err error) {
	if amount == nil || amount.Sign() <= 0 {
		return Event{}, ErrInvalidAmount
	}
	if amount.Cmp(v.cfg.MaxWithdrawal) > 0 {
		return Event{}, fmt.Errorf("%w: %s above %s", ErrWithdrawalLimitExceeded, amount, v.cfg.MaxWithdrawal)
	}

	ctx, s := v.lock(ctx, "withdraw")
	defer func() { s.done(ctx, err) }()

	a, ok := v.accounts[user]
	var h *holding
	if ok {
		h = a.holdings[id]
	}
	if h == nil || h.amount.Cmp(amount) < 0 {
		have := new(big.Int)
		if h != nil {
			have.Set(h.amount)
		}
		return Event{}, fmt.Errorf("%w: have %s, want %s", ErrInsufficientBalance, have, amount)
	}
	usd := released(h, amount)

	var fx effects
	v.adjust(&fx, h, new(big.Int).Neg(amount), new(big.Int).Neg(usd))
	v.addTotal(&fx, new(big.Int).Neg(usd))
	v.countWithdrawal(&fx, a)
	e := v.emit(&fx, EventWithdrawal, user, id, amount, usd)

	payErr := v.transport.TransferOut(ctx, id, user, amount)
	if errors.Is(payErr, ErrTransferPending) {
		v.unconfirmed("out", &e, payErr)
		return e, nil
	}
	if err := payErr; err != nil {
		fx.rollback()
		metrics.TransferFailures.WithLabelValues("out").Inc()
		v.logger.Warn("Withdrawal transfer failed",
			zap.String("user", user.Hex()),
			zap.String("asset", asset.Label(id)),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return Event{}, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return e, nil
}

// released is the share of h's book value that leaves with amount.
func released(h *holding, amount *big.Int) *big.Int {
	if amount.Cmp(h.amount) == 0 {
		return new(big.Int).Set(h.book)
	}
	usd := new(big.Int).Mul(h.book, amount)
	return usd.Quo(usd, h.amount)
}
