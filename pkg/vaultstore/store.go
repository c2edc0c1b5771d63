// Package vaultstore persists the vault ledger in PostgreSQL. Every committed
// event is appended to ledger_events and applied to the balance tables in the
// same transaction, so the tables can rebuild the in-memory ledger at startup.
package vaultstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/vault"
)

const stateID = 1

// ErrCorrupt is returned when stored values cannot be decoded.
var ErrCorrupt = errors.New("corrupt ledger row")

// Store is the PostgreSQL implementation of vault.Recorder plus snapshot loading.
type Store struct {
	db *bun.DB
}

// NewStore creates a new postgres ledger store.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Record appends e and applies it to the balance tables.
func (s *Store) Record(ctx context.Context, e vault.Event) error {
	sign := 1
	deposits, withdrawals := int64(1), int64(0)
	if e.Kind == vault.EventWithdrawal {
		sign = -1
		deposits, withdrawals = 0, 1
	}
	amount := signed(e.Amount, sign)
	usd := signed(e.USDValue, sign)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&EventDao{
				ID:        e.ID,
				Kind:      string(e.Kind),
				User:      e.User.Hex(),
				Asset:     e.Asset.Hex(),
				Amount:    e.Amount.String(),
				USDValue:  e.USDValue.String(),
				CreatedAt: e.At,
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert event %s: %w", e.ID, err)
		}

		_, err = tx.NewInsert().
			Model(&AccountDao{User: e.User.Hex(), Deposits: deposits, Withdrawals: withdrawals}).
			On("CONFLICT (user_address) DO UPDATE").
			Set("deposits = va.deposits + EXCLUDED.deposits").
			Set("withdrawals = va.withdrawals + EXCLUDED.withdrawals").
			Set("updated_at = NOW()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update account counters: %w", err)
		}

		if err := applyHolding(ctx, tx, e, amount, usd); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*StateDao)(nil)).
			Set("total_usd = total_usd + ?::NUMERIC", usd).
			Set("updated_at = NOW()").
			Where("id = ?", stateID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update total: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			_, err = tx.NewInsert().Model(&StateDao{ID: stateID, TotalUSD: usd}).Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create state row: %w", err)
			}
		}
		return nil
	})
}

// applyHolding credits or debits the (user, asset) entry. Debits are plain
// updates so the non-negative constraint is checked against the result.
func applyHolding(ctx context.Context, tx bun.Tx, e vault.Event, amount, usd string) error {
	if e.Kind != vault.EventWithdrawal {
		_, err := tx.NewInsert().
			Model(&HoldingDao{User: e.User.Hex(), Asset: e.Asset.Hex(), Amount: amount, Book: usd}).
			On("CONFLICT (user_address, asset_address) DO UPDATE").
			Set("amount = vh.amount + EXCLUDED.amount").
			Set("book_usd = vh.book_usd + EXCLUDED.book_usd").
			Set("updated_at = NOW()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to credit holding: %w", err)
		}
		return nil
	}

	res, err := tx.NewUpdate().
		Model((*HoldingDao)(nil)).
		Set("amount = amount + ?::NUMERIC", amount).
		Set("book_usd = book_usd + ?::NUMERIC", usd).
		Set("updated_at = NOW()").
		Where("user_address = ? AND asset_address = ?", e.User.Hex(), e.Asset.Hex()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit holding: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("%w: withdrawal from unknown holding %s/%s", ErrCorrupt, e.User.Hex(), asset.Label(e.Asset))
	}
	return nil
}

// SaveAssets replaces the stored registry.
func (s *Store) SaveAssets(ctx context.Context, entries []registry.Entry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*AssetDao)(nil)).Where("1=1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear assets: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		daos := make([]AssetDao, len(entries))
		for i, e := range entries {
			daos[i] = AssetDao{
				Address:   e.Asset.Hex(),
				Supported: e.Supported,
				Decimals:  int16(e.Decimals),
				Position:  i,
			}
			if e.Feed != nil {
				feed := e.Feed.Hex()
				daos[i].Feed = &feed
			}
		}
		if _, err := tx.NewInsert().Model(&daos).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert assets: %w", err)
		}
		return nil
	})
}

// Load reads the stored ledger as a snapshot for vault.Restore. An empty
// database yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (vault.Snapshot, error) {
	var snap vault.Snapshot

	err := s.db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}, func(ctx context.Context, tx bun.Tx) error {
		state := new(StateDao)
		err := tx.NewSelect().Model(state).Where("id = ?", stateID).Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			snap.Total = new(big.Int)
		case err != nil:
			return fmt.Errorf("failed to read state: %w", err)
		default:
			if snap.Total, err = parseInt(state.TotalUSD); err != nil {
				return err
			}
		}

		var accounts []AccountDao
		if err := tx.NewSelect().Model(&accounts).Scan(ctx); err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		var holdings []HoldingDao
		if err := tx.NewSelect().Model(&holdings).
			Where("amount > 0").
			Scan(ctx); err != nil {
			return fmt.Errorf("failed to list holdings: %w", err)
		}
		var assets []AssetDao
		if err := tx.NewSelect().Model(&assets).Order("position").Scan(ctx); err != nil {
			return fmt.Errorf("failed to list assets: %w", err)
		}

		byUser := make(map[string][]vault.Holding)
		for _, h := range holdings {
			amount, err := parseInt(h.Amount)
			if err != nil {
				return err
			}
			book, err := parseInt(h.Book)
			if err != nil {
				return err
			}
			byUser[h.User] = append(byUser[h.User], vault.Holding{
				Asset:    common.HexToAddress(h.Asset),
				Amount:   amount,
				USDValue: book,
			})
		}
		for _, a := range accounts {
			snap.Accounts = append(snap.Accounts, vault.Account{
				User:        common.HexToAddress(a.User),
				Deposits:    uint64(a.Deposits),
				Withdrawals: uint64(a.Withdrawals),
				Holdings:    byUser[a.User],
			})
		}
		sortSnapshot(&snap)
		for _, a := range assets {
			e := registry.Entry{
				Asset:     common.HexToAddress(a.Address),
				Supported: a.Supported,
				Decimals:  uint8(a.Decimals),
			}
			if a.Feed != nil {
				feed := common.HexToAddress(*a.Feed)
				e.Feed = &feed
			}
			snap.Assets = append(snap.Assets, e)
		}
		return nil
	})
	if err != nil {
		return vault.Snapshot{}, err
	}
	return snap, nil
}

// EventQuery filters ListEvents.
type EventQuery struct {
	User  *asset.ID
	Asset *asset.ID
	Since time.Time
	Limit int
}

// ListEvents returns committed events, newest first.
func (s *Store) ListEvents(ctx context.Context, q EventQuery) ([]vault.Event, error) {
	var daos []EventDao
	query := s.db.NewSelect().Model(&daos).Order("seq DESC")
	if q.User != nil {
		query = query.Where("user_address = ?", q.User.Hex())
	}
	if q.Asset != nil {
		query = query.Where("asset_address = ?", q.Asset.Hex())
	}
	if !q.Since.IsZero() {
		query = query.Where("created_at >= ?", q.Since)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]vault.Event, 0, len(daos))
	for _, d := range daos {
		amount, err := parseInt(d.Amount)
		if err != nil {
			return nil, err
		}
		usd, err := parseInt(d.USDValue)
		if err != nil {
			return nil, err
		}
		events = append(events, vault.Event{
			ID:       d.ID,
			Kind:     vault.EventKind(d.Kind),
			User:     common.HexToAddress(d.User),
			Asset:    common.HexToAddress(d.Asset),
			Amount:   amount,
			USDValue: usd,
			At:       d.CreatedAt.UTC(),
		})
	}
	return events, nil
}

// sortSnapshot orders accounts and holdings by address bytes, matching
// vault.Snapshot. Stored addresses are checksummed, so text order differs.
func sortSnapshot(s *vault.Snapshot) {
	sort.Slice(s.Accounts, func(i, j int) bool {
		return bytes.Compare(s.Accounts[i].User[:], s.Accounts[j].User[:]) < 0
	})
	for _, a := range s.Accounts {
		sort.Slice(a.Holdings, func(i, j int) bool {
			return bytes.Compare(a.Holdings[i].Asset[:], a.Holdings[j].Asset[:]) < 0
		})
	}
}

func signed(x *big.Int, sign int) string {
	if sign < 0 {
		return new(big.Int).Neg(x).String()
	}
	return x.String()
}

// parseInt decodes a NUMERIC(78,0) column.
func parseInt(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCorrupt, s)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: fractional value %q", ErrCorrupt, s)
	}
	return d.BigInt(), nil
}
