// Package oracle resolves asset prices from external price feeds.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainsafe/vault-ledger/pkg/asset"
)

var (
	ErrOracleNotConfigured = errors.New("oracle not configured")
	ErrStalePrice          = errors.New("stale price")
	ErrInvalidPrice        = errors.New("invalid price")
)

// Price is a feed answer with asset.PriceDecimals implied decimals.
type Price struct {
	Value     *big.Int
	UpdatedAt time.Time
}

// Feed reads the latest answer of a price feed. Implementations make no
// freshness or round-completeness promise beyond what the upstream gives.
type Feed interface {
	LatestPrice(ctx context.Context, feed asset.ID) (Price, error)
}

// Bindings maps secondary assets to the feed that prices them.
type Bindings interface {
	FeedOf(id asset.ID) (asset.ID, bool)
}

// Adapter prices assets through their bound feeds.
type Adapter struct {
	feed       Feed
	nativeFeed asset.ID
	bindings   Bindings
	maxAge     time.Duration
	now        func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMaxAge rejects answers older than d. Zero disables the check.
func WithMaxAge(d time.Duration) Option {
	return func(a *Adapter) {
		a.maxAge = d
	}
}

// WithClock overrides the clock used for the staleness check.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// NewAdapter creates an adapter. nativeFeed prices the native asset; every
// other asset is looked up in bindings.
func NewAdapter(feed Feed, nativeFeed asset.ID, bindings Bindings, opts ...Option) *Adapter {
	a := &Adapter{
		feed:       feed,
		nativeFeed: nativeFeed,
		bindings:   bindings,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NativeFeed returns the feed bound to the native asset.
func (a *Adapter) NativeFeed() asset.ID {
	return a.nativeFeed
}

// PriceOf returns the price of id with asset.PriceDecimals decimals.
func (a *Adapter) PriceOf(ctx context.Context, id asset.ID) (*big.Int, error) {
	feed := a.nativeFeed
	if !asset.IsNative(id) {
		bound, ok := a.bindings.FeedOf(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrOracleNotConfigured, asset.Label(id))
		}
		feed = bound
	}

	p, err := a.feed.LatestPrice(ctx, feed)
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", feed.Hex(), err)
	}
	if p.Value == nil || p.Value.Sign() <= 0 {
		return nil, fmt.Errorf("%w: feed %s answered %v", ErrInvalidPrice, feed.Hex(), p.Value)
	}
	if a.maxAge > 0 && a.now().Sub(p.UpdatedAt) > a.maxAge {
		return nil, fmt.Errorf("%w: feed %s updated at %s", ErrStalePrice, feed.Hex(), p.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return new(big.Int).Set(p.Value), nil
}
