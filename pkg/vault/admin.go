package vault

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	"github.com/chainsafe/vault-ledger/pkg/asset"
)

// SupportAsset starts accepting deposits of id. When decimals is nil the
// precision is read through TokenMetadata.
func (v *Vault) SupportAsset(ctx context.Context, caller, id asset.ID, feed *asset.ID, decimals *uint8) (err error) {
	if err := v.registry.Authorize(ctx, caller); err != nil {
		return err
	}
	if asset.IsNative(id) {
		return ErrInvalidAsset
	}

	var d uint8
	switch {
	case decimals != nil:
		d = *decimals
	case v.metadata != nil:
		d, err = v.metadata.Decimals(ctx, id)
		if err != nil {
			return fmt.Errorf("read decimals of %s: %w", id.Hex(), err)
		}
	default:
		return fmt.Errorf("%w: decimals of %s are required", ErrInvalidAsset, id.Hex())
	}

	ctx, s := v.lock(ctx, "support_asset")
	defer func() { s.done(ctx, err) }()

	if err := v.registry.Support(ctx, caller, id, feed, d); err != nil {
		return err
	}
	metrics.SupportedAssets.Set(float64(len(v.registry.Assets())))
	v.logger.Info("Asset supported",
		zap.String("asset", id.Hex()),
		zap.Uint8("decimals", d),
		zap.Bool("feed_bound", feed != nil),
		zap.String("caller", caller.Hex()))
	return nil
}

// UnsupportAsset stops accepting deposits of id. Existing balances stay
// withdrawable.
func (v *Vault) UnsupportAsset(ctx context.Context, caller, id asset.ID) (err error) {
	ctx, s := v.lock(ctx, "unsupport_asset")
	defer func() { s.done(ctx, err) }()

	if err := v.registry.Unsupport(ctx, caller, id); err != nil {
		return err
	}
	metrics.SupportedAssets.Set(float64(len(v.registry.Assets())))
	v.logger.Info("Asset unsupported",
		zap.String("asset", id.Hex()),
		zap.String("caller", caller.Hex()))
	return nil
}

// SetAssetFeed binds feed to the secondary asset id.
func (v *Vault) SetAssetFeed(ctx context.Context, caller, id, feed asset.ID) (err error) {
	ctx, s := v.lock(ctx, "set_asset_feed")
	defer func() { s.done(ctx, err) }()

	if err := v.registry.SetFeed(ctx, caller, id, feed); err != nil {
		return err
	}
	v.logger.Info("Asset feed updated",
		zap.String("asset", id.Hex()),
		zap.String("feed", feed.Hex()),
		zap.String("caller", caller.Hex()))
	return nil
}
