package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/registry"
)

// AuditReport compares the recorded aggregate with the one recomputed from
// the individual entries.
type AuditReport struct {
	Recorded   *big.Int
	Recomputed *big.Int
	// Drift is Recorded minus Recomputed.
	Drift      *big.Int
	Accounts   int
	Holdings   int
	Violations []string
}

// Consistent reports whether the audit found nothing wrong.
func (r AuditReport) Consistent() bool {
	return r.Drift.Sign() == 0 && len(r.Violations) == 0
}

// Audit recomputes the aggregate from every entry and checks the per-entry
// invariants. It never mutates the ledger.
func (v *Vault) Audit(ctx context.Context) AuditReport {
	defer v.rlock(ctx)()

	r := AuditReport{
		Recorded:   new(big.Int).Set(v.total),
		Recomputed: new(big.Int),
		Accounts:   len(v.accounts),
	}
	for user, a := range v.accounts {
		for id, h := range a.holdings {
			r.Holdings++
			r.Recomputed.Add(r.Recomputed, h.book)
			if h.amount.Sign() < 0 {
				r.Violations = append(r.Violations, fmt.Sprintf("negative balance %s/%s: %s", user.Hex(), asset.Label(id), h.amount))
			}
			if h.book.Sign() < 0 {
				r.Violations = append(r.Violations, fmt.Sprintf("negative book value %s/%s: %s", user.Hex(), asset.Label(id), h.book))
			}
			if h.amount.Sign() == 0 && h.book.Sign() != 0 {
				r.Violations = append(r.Violations, fmt.Sprintf("book value without balance %s/%s: %s", user.Hex(), asset.Label(id), h.book))
			}
		}
	}
	if v.total.Sign() < 0 {
		r.Violations = append(r.Violations, "negative aggregate total")
	}
	r.Drift = new(big.Int).Sub(r.Recorded, r.Recomputed)
	sort.Strings(r.Violations)
	return r
}

// Revalue prices every held asset at the current oracle answer. Assets with
// no feed bound are counted at their book value.
func (v *Vault) Revalue(ctx context.Context) (*big.Int, error) {
	type position struct {
		amount *big.Int
		book   *big.Int
	}

	unlock := v.rlock(ctx)
	positions := make(map[asset.ID]*position)
	for _, a := range v.accounts {
		for id, h := range a.holdings {
			p, ok := positions[id]
			if !ok {
				p = &position{amount: new(big.Int), book: new(big.Int)}
				positions[id] = p
			}
			p.amount.Add(p.amount, h.amount)
			p.book.Add(p.book, h.book)
		}
	}
	unlock()

	sum := new(big.Int)
	for id, p := range positions {
		if p.amount.Sign() == 0 {
			continue
		}
		usd, err := v.value(ctx, id, p.amount)
		switch {
		case err == nil:
			sum.Add(sum, usd)
		case errors.Is(err, ErrOracleNotConfigured), errors.Is(err, ErrAssetNotSupported):
			sum.Add(sum, p.book)
		default:
			return nil, fmt.Errorf("revalue %s: %w", asset.Label(id), err)
		}
	}
	return sum, nil
}

// Snapshot is the full ledger state, suitable for persistence.
type Snapshot struct {
	Total    *big.Int
	Accounts []Account
	Assets   []registry.Entry
}

// Snapshot copies the ledger and registry state.
func (v *Vault) Snapshot(ctx context.Context) Snapshot {
	defer v.rlock(ctx)()

	s := Snapshot{
		Total:  new(big.Int).Set(v.total),
		Assets: v.registry.Entries(),
	}
	for user, a := range v.accounts {
		s.Accounts = append(s.Accounts, accountView(user, a))
	}
	sort.Slice(s.Accounts, func(i, j int) bool {
		return bytes.Compare(s.Accounts[i].User[:], s.Accounts[j].User[:]) < 0
	})
	return s
}

// Restore replaces the ledger and registry state with s. The snapshot must be
// internally consistent: no negative entries and a total equal to the sum of
// the entries' USD values.
func (v *Vault) Restore(ctx context.Context, s Snapshot) (err error) {
	if v.holds(ctx) {
		return fmt.Errorf("%w: restore inside a ledger operation", ErrLedgerInconsistent)
	}
	accounts := make(map[asset.ID]*account, len(s.Accounts))
	sum := new(big.Int)
	for _, acc := range s.Accounts {
		if _, dup := accounts[acc.User]; dup {
			return fmt.Errorf("%w: duplicate account %s", ErrLedgerInconsistent, acc.User.Hex())
		}
		a := &account{
			deposits:    acc.Deposits,
			withdrawals: acc.Withdrawals,
			holdings:    make(map[asset.ID]*holding, len(acc.Holdings)),
		}
		for _, h := range acc.Holdings {
			if h.Amount == nil || h.USDValue == nil || h.Amount.Sign() < 0 || h.USDValue.Sign() < 0 {
				return fmt.Errorf("%w: bad entry %s/%s", ErrLedgerInconsistent, acc.User.Hex(), asset.Label(h.Asset))
			}
			if h.Amount.Sign() == 0 && h.USDValue.Sign() != 0 {
				return fmt.Errorf("%w: book value without balance %s/%s", ErrLedgerInconsistent, acc.User.Hex(), asset.Label(h.Asset))
			}
			a.holdings[h.Asset] = &holding{
				amount: new(big.Int).Set(h.Amount),
				book:   new(big.Int).Set(h.USDValue),
			}
			sum.Add(sum, h.USDValue)
		}
		accounts[acc.User] = a
	}
	total := new(big.Int)
	if s.Total != nil {
		total.Set(s.Total)
	}
	if total.Cmp(sum) != 0 {
		return fmt.Errorf("%w: total %s, entries sum to %s", ErrLedgerInconsistent, total, sum)
	}

	ctx, sec := v.lock(ctx, "restore")
	defer func() { sec.done(ctx, err) }()

	v.accounts = accounts
	v.total = total
	v.registry.Restore(s.Assets)
	v.observeTotal()
	return nil
}
