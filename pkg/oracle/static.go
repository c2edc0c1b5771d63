package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chainsafe/vault-ledger/pkg/asset"
)

// StaticFeed is an in-memory Feed whose answers are set by hand. It backs
// local runs and tests.
type StaticFeed struct {
	mu     sync.RWMutex
	prices map[asset.ID]Price
	errs   map[asset.ID]error
}

// NewStaticFeed creates an empty feed.
func NewStaticFeed() *StaticFeed {
	return &StaticFeed{
		prices: make(map[asset.ID]Price),
		errs:   make(map[asset.ID]error),
	}
}

// Set publishes value for feed, stamped with the current time.
func (f *StaticFeed) Set(feed asset.ID, value *big.Int) {
	f.SetAt(feed, value, time.Now())
}

// SetAt publishes value for feed with an explicit update time.
func (f *StaticFeed) SetAt(feed asset.ID, value *big.Int, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[feed] = Price{Value: new(big.Int).Set(value), UpdatedAt: at}
	delete(f.errs, feed)
}

// Fail makes every read of feed return err until the next Set.
func (f *StaticFeed) Fail(feed asset.ID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[feed] = err
}

// LatestPrice implements Feed.
func (f *StaticFeed) LatestPrice(_ context.Context, feed asset.ID) (Price, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.errs[feed]; ok {
		return Price{}, err
	}
	p, ok := f.prices[feed]
	if !ok {
		return Price{}, fmt.Errorf("no answer for feed %s", feed.Hex())
	}
	return Price{Value: new(big.Int).Set(p.Value), UpdatedAt: p.UpdatedAt}, nil
}
