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

// Deposit pulls amount of a secondary asset from user into custody and
// credits it. Capacity is reserved before the transfer so a reentrant deposit
// made from inside TransferIn sees it; the balance itself is only credited
// once the transfer succeeded. A failed transfer releases the reservation. A
// pending one is credited and the event is marked Pending.
func (v *Vault) Deposit(ctx context.Context, user, id asset.ID, amount *big.Int) (ev Event, err error) {
	if amount == nil || amount.Sign() <= 0 {
		return Event{}, ErrInvalidAmount
	}
	if asset.IsNative(id) {
		return Event{}, fmt.Errorf("%w: native asset arrives through DepositNative", ErrAssetNotSupported)
	}

	ctx, s := v.lock(ctx, "deposit")
	defer func() { s.done(ctx, err) }()

	if !v.registry.IsSupported(id) {
		return Event{}, fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Label(id))
	}
	usd, err := v.value(ctx, id, amount)
	if err != nil {
		return Event{}, err
	}
	if err := v.checkCapacity(usd); err != nil {
		return Event{}, err
	}

	var fx effects
	v.addTotal(&fx, usd)
	pullErr := v.transport.TransferIn(ctx, id, user, amount)
	if err := pullErr; err != nil && !errors.Is(err, ErrTransferPending) {
		fx.rollback()
		metrics.TransferFailures.WithLabelValues("in").Inc()
		v.logger.Warn("Deposit transfer failed",
			zap.String("user", user.Hex()),
			zap.String("asset", asset.Label(id)),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return Event{}, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	v.adjust(&fx, v.holdingFor(user, id), amount, usd)
	v.countDeposit(&fx, v.accountFor(user))
	e := v.emit(&fx, EventDeposit, user, id, amount, usd)
	if pullErr != nil {
		v.unconfirmed("in", &e, pullErr)
	}
	return e, nil
}

// DepositNative credits value of the native asset that arrived with the call.
// The value cannot be pulled later, so an error means the caller's transport
// must bounce it.
func (v *Vault) DepositNative(ctx context.Context, user asset.ID, value *big.Int) (ev Event, err error) {
	if value == nil || value.Sign() <= 0 {
		return Event{}, ErrInvalidAmount
	}

	ctx, s := v.lock(ctx, "deposit_native")
	defer func() { s.done(ctx, err) }()

	usd, err := v.value(ctx, asset.Native, value)
	if err != nil {
		return Event{}, err
	}
	if err := v.checkCapacity(usd); err != nil {
		return Event{}, err
	}

	var fx effects
	v.adjust(&fx, v.holdingFor(user, asset.Native), value, usd)
	v.addTotal(&fx, usd)
	v.countDeposit(&fx, v.accountFor(user))
	return v.emit(&fx, EventDeposit, user, asset.Native, value, usd), nil
}

// ReceiveNative handles native value sent without a deposit instruction. It is
// always refused.
func (v *Vault) ReceiveNative(_ context.Context, from asset.ID, value *big.Int) error {
	metrics.OperationsTotal.WithLabelValues("receive_native", statusOf(ErrDirectTransferNotAllowed)).Inc()
	v.logger.Warn("Rejected direct native transfer",
		zap.String("from", from.Hex()),
		zap.Stringer("value", value))
	return ErrDirectTransferNotAllowed
}
