package vault

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/chainsafe/vault-ledger/pkg/asset"
)

// EventKind distinguishes ledger movements.
type EventKind string

const (
	EventDeposit    EventKind = "deposit"
	EventWithdrawal EventKind = "withdrawal"
)

// Event is the record of a committed movement. Amount and USDValue are
// unsigned; Kind gives the direction. Replaying every event in order
// reproduces the ledger.
type Event struct {
	ID       uuid.UUID
	Kind     EventKind
	User     asset.ID
	Asset    asset.ID
	Amount   *big.Int
	USDValue *big.Int
	At       time.Time
	// Pending is set on the returned event when the transfer was submitted
	// but not confirmed before the call returned.
	Pending bool
}

// emit buffers an event until the outermost operation leaves the critical
// section. Rolling fx back withdraws it.
func (v *Vault) emit(fx *effects, kind EventKind, user, id asset.ID, amount, usd *big.Int) Event {
	e := Event{
		ID:       uuid.New(),
		Kind:     kind,
		User:     user,
		Asset:    id,
		Amount:   new(big.Int).Set(amount),
		USDValue: new(big.Int).Set(usd),
		At:       v.now().UTC(),
	}
	v.pending = append(v.pending, e)
	fx.record(func() {
		for i := range v.pending {
			if v.pending[i].ID == e.ID {
				v.pending = append(v.pending[:i], v.pending[i+1:]...)
				return
			}
		}
	})
	return e
}
