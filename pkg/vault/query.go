package vault

import (
	"bytes"
	"context"
	"math/big"
	"sort"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/registry"
)

// Holding is one (user, asset) balance entry.
type Holding struct {
	Asset  asset.ID
	Amount *big.Int
	// USDValue is the value this entry contributes to the aggregate.
	USDValue *big.Int
}

// Account is a user's counters and holdings.
type Account struct {
	User        asset.ID
	Deposits    uint64
	Withdrawals uint64
	Holdings    []Holding
}

// Balance returns user's balance of id in native units. Absent entries are zero.
func (v *Vault) Balance(ctx context.Context, user, id asset.ID) *big.Int {
	defer v.rlock(ctx)()
	if a, ok := v.accounts[user]; ok {
		if h, ok := a.holdings[id]; ok {
			return new(big.Int).Set(h.amount)
		}
	}
	return new(big.Int)
}

// SupportedAssets lists the secondary assets currently accepted for deposit.
func (v *Vault) SupportedAssets(ctx context.Context) []asset.ID {
	defer v.rlock(ctx)()
	return v.registry.Assets()
}

// TotalUSDValue sums the USD value of every holding of user.
func (v *Vault) TotalUSDValue(ctx context.Context, user asset.ID) *big.Int {
	defer v.rlock(ctx)()
	sum := new(big.Int)
	if a, ok := v.accounts[user]; ok {
		for _, h := range a.holdings {
			sum.Add(sum, h.book)
		}
	}
	return sum
}

// TotalDeposited returns the aggregate USD value held by the vault.
func (v *Vault) TotalDeposited(ctx context.Context) *big.Int {
	defer v.rlock(ctx)()
	return new(big.Int).Set(v.total)
}

// Counters returns how many deposits and withdrawals user has made.
func (v *Vault) Counters(ctx context.Context, user asset.ID) (deposits, withdrawals uint64) {
	defer v.rlock(ctx)()
	if a, ok := v.accounts[user]; ok {
		return a.deposits, a.withdrawals
	}
	return 0, 0
}

// Account returns user's counters and non-empty holdings, ordered by asset.
func (v *Vault) Account(ctx context.Context, user asset.ID) Account {
	defer v.rlock(ctx)()
	out := Account{User: user}
	if a, ok := v.accounts[user]; ok {
		out = accountView(user, a)
	}
	return out
}

func accountView(user asset.ID, a *account) Account {
	out := Account{User: user, Deposits: a.deposits, Withdrawals: a.withdrawals}
	for id, h := range a.holdings {
		if h.amount.Sign() == 0 && h.book.Sign() == 0 {
			continue
		}
		out.Holdings = append(out.Holdings, Holding{
			Asset:    id,
			Amount:   new(big.Int).Set(h.amount),
			USDValue: new(big.Int).Set(h.book),
		})
	}
	sort.Slice(out.Holdings, func(i, j int) bool {
		return bytes.Compare(out.Holdings[i].Asset[:], out.Holdings[j].Asset[:]) < 0
	})
	return out
}

// AssetEntries returns every registry entry, supported or not, in
// enumeration order.
func (v *Vault) AssetEntries(ctx context.Context) []registry.Entry {
	defer v.rlock(ctx)()
	return v.registry.Entries()
}
