package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnauthorized is returned when a caller lacks the admin capability.
var ErrUnauthorized = errors.New("unauthorized")

// Gate decides whether a caller may perform administrative operations.
type Gate interface {
	HasAdminCapability(ctx context.Context, caller common.Address) bool
}

// StaticAdmins is a Gate backed by a fixed set of admin addresses.
type StaticAdmins struct {
	mu     sync.RWMutex
	admins map[common.Address]struct{}
}

// NewStaticAdmins creates a gate granting the admin capability to addrs.
func NewStaticAdmins(addrs ...common.Address) *StaticAdmins {
	g := &StaticAdmins{admins: make(map[common.Address]struct{}, len(addrs))}
	for _, a := range addrs {
		g.admins[a] = struct{}{}
	}
	return g
}

// HasAdminCapability implements Gate.
func (g *StaticAdmins) HasAdminCapability(_ context.Context, caller common.Address) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.admins[caller]
	return ok
}

// Grant adds caller to the admin set.
func (g *StaticAdmins) Grant(caller common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.admins[caller] = struct{}{}
}

// Revoke removes caller from the admin set.
func (g *StaticAdmins) Revoke(caller common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.admins, caller)
}
