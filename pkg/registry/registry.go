// Package registry tracks which secondary assets the vault accepts and which
// price feed values each of them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/auth"
)

var (
	ErrInvalidAsset      = errors.New("invalid asset")
	ErrInvalidOracle     = errors.New("invalid oracle")
	ErrAssetNotSupported = errors.New("asset not supported")
)

// Entry is the registry record of one secondary asset.
type Entry struct {
	Asset     asset.ID
	Supported bool
	Feed      *asset.ID
	Decimals  uint8
}

// Registry is the set of supported secondary assets. The supported list is a
// dense slice with an index map, so membership is O(1) and removal swaps the
// removed element with the last one.
type Registry struct {
	gate auth.Gate

	mu      sync.RWMutex
	entries map[asset.ID]*Entry
	list    []asset.ID
	index   map[asset.ID]int
}

// New creates an empty registry whose mutations are authorized by gate.
func New(gate auth.Gate) *Registry {
	return &Registry{
		gate:    gate,
		entries: make(map[asset.ID]*Entry),
		index:   make(map[asset.ID]int),
	}
}

// Authorize fails with auth.ErrUnauthorized unless caller holds the admin capability.
func (r *Registry) Authorize(ctx context.Context, caller asset.ID) error {
	if r.gate == nil || !r.gate.HasAdminCapability(ctx, caller) {
		return fmt.Errorf("%w: %s", auth.ErrUnauthorized, caller.Hex())
	}
	return nil
}

// Support registers id as accepted. Supporting an already supported asset
// leaves the flag and list untouched, but a non-nil feed still replaces the
// current binding.
func (r *Registry) Support(ctx context.Context, caller, id asset.ID, feed *asset.ID, decimals uint8) error {
	if err := r.Authorize(ctx, caller); err != nil {
		return err
	}
	if asset.IsNative(id) {
		return ErrInvalidAsset
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &Entry{Asset: id}
		r.entries[id] = e
	}
	if !e.Supported {
		e.Supported = true
		e.Decimals = decimals
		r.index[id] = len(r.list)
		r.list = append(r.list, id)
	}
	if feed != nil {
		f := *feed
		e.Feed = &f
	}
	return nil
}

// Unsupport stops accepting id and drops its feed binding. Balances already
// held in id are not affected.
func (r *Registry) Unsupport(ctx context.Context, caller, id asset.ID) error {
	if err := r.Authorize(ctx, caller); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || !e.Supported {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Label(id))
	}
	e.Supported = false
	e.Feed = nil

	i := r.index[id]
	last := len(r.list) - 1
	if i != last {
		moved := r.list[last]
		r.list[i] = moved
		r.index[moved] = i
	}
	r.list = r.list[:last]
	delete(r.index, id)
	return nil
}

// SetFeed binds feed to a secondary asset, registered or not.
func (r *Registry) SetFeed(ctx context.Context, caller, id, feed asset.ID) error {
	if err := r.Authorize(ctx, caller); err != nil {
		return err
	}
	if asset.IsNative(id) {
		return ErrInvalidOracle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = &Entry{Asset: id}
		r.entries[id] = e
	}
	e.Feed = &feed
	return nil
}

// IsSupported reports whether deposits of id are accepted.
func (r *Registry) IsSupported(id asset.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[id]
	return ok
}

// FeedOf returns the feed bound to id.
func (r *Registry) FeedOf(id asset.ID) (asset.ID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.Feed == nil {
		return asset.ID{}, false
	}
	return *e.Feed, true
}

// Decimals returns the precision recorded for id.
func (r *Registry) Decimals(id asset.ID) (uint8, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return 0, false
	}
	return e.Decimals, true
}

// Assets returns the supported assets in list order.
func (r *Registry) Assets() []asset.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]asset.ID, len(r.list))
	copy(out, r.list)
	return out
}

// Entries returns a copy of every record, supported or not.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, id := range r.list {
		out = append(out, copyEntry(r.entries[id]))
	}
	for id, e := range r.entries {
		if _, listed := r.index[id]; !listed {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

// Restore replaces the registry contents with entries, rebuilding the
// supported list in the order given.
func (r *Registry) Restore(entries []Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[asset.ID]*Entry, len(entries))
	r.index = make(map[asset.ID]int)
	r.list = r.list[:0]
	for _, e := range entries {
		c := copyEntry(&e)
		r.entries[e.Asset] = &c
		if c.Supported {
			r.index[e.Asset] = len(r.list)
			r.list = append(r.list, e.Asset)
		}
	}
}

func copyEntry(e *Entry) Entry {
	c := *e
	if e.Feed != nil {
		f := *e.Feed
		c.Feed = &f
	}
	return c
}
