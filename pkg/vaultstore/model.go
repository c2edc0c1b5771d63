package vaultstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StateDao is the singleton row holding the ledger aggregate.
type StateDao struct {
	bun.BaseModel `bun:"table:vault_state,alias:vs"`
	ID            int       `bun:"id,pk"`
	TotalUSD      string    `bun:"total_usd,notnull,type:numeric(78,0),default:0"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AccountDao maps to the 'vault_accounts' table.
type AccountDao struct {
	bun.BaseModel `bun:"table:vault_accounts,alias:va"`
	User          string    `bun:"user_address,pk,type:varchar(42)"`
	Deposits      int64     `bun:"deposits,notnull,default:0"`
	Withdrawals   int64     `bun:"withdrawals,notnull,default:0"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// HoldingDao maps to the 'vault_holdings' table. Book is the USD value the
// entry contributes to the aggregate.
type HoldingDao struct {
	bun.BaseModel `bun:"table:vault_holdings,alias:vh"`
	User          string    `bun:"user_address,pk,type:varchar(42)"`
	Asset         string    `bun:"asset_address,pk,type:varchar(42)"`
	Amount        string    `bun:"amount,notnull,type:numeric(78,0)"`
	Book          string    `bun:"book_usd,notnull,type:numeric(78,0)"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// AssetDao maps to the 'vault_assets' table. Position preserves the
// registry's enumeration order.
type AssetDao struct {
	bun.BaseModel `bun:"table:vault_assets,alias:vas"`
	Address       string  `bun:"address,pk,type:varchar(42)"`
	Supported     bool    `bun:"supported,notnull"`
	Feed          *string `bun:"feed,type:varchar(42)"`
	Decimals      int16   `bun:"decimals,notnull,type:smallint"`
	Position      int     `bun:"position,notnull"`
}

// EventDao maps to the append-only 'ledger_events' table.
type EventDao struct {
	bun.BaseModel `bun:"table:ledger_events,alias:le"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Seq           int64     `bun:"seq,autoincrement,unique"`
	Kind          string    `bun:"kind,notnull,type:varchar(16)"`
	User          string    `bun:"user_address,notnull,type:varchar(42)"`
	Asset         string    `bun:"asset_address,notnull,type:varchar(42)"`
	Amount        string    `bun:"amount,notnull,type:numeric(78,0)"`
	USDValue      string    `bun:"usd_value,notnull,type:numeric(78,0)"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}
