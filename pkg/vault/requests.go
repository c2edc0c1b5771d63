package vault

import (
	"math/big"
	"time"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/registry"
)

// Amounts on the wire are decimal strings of integer base units: native
// units for assets, canonical 6-decimal units for USD.

// LoginRequest carries a signed login message
type LoginRequest struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// LoginResponse carries a session token
type LoginResponse struct {
	Token     string    `json:"token"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DepositRequest moves an asset into the vault. Asset is a token address or
// "native".
type DepositRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// WithdrawRequest moves an asset out of the vault
type WithdrawRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// EventResponse is a committed ledger movement
type EventResponse struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	User     string    `json:"user"`
	Asset    string    `json:"asset"`
	Amount   string    `json:"amount"`
	USDValue string    `json:"usd_value"`
	At       time.Time `json:"at"`
	Pending  bool      `json:"pending,omitempty"`
}

// HoldingResponse is one balance entry
type HoldingResponse struct {
	Asset    string `json:"asset"`
	Amount   string `json:"amount"`
	USDValue string `json:"usd_value"`
}

// AccountResponse is a user's position
type AccountResponse struct {
	User          string            `json:"user"`
	Deposits      uint64            `json:"deposits"`
	Withdrawals   uint64            `json:"withdrawals"`
	TotalUSDValue string            `json:"total_usd_value"`
	Holdings      []HoldingResponse `json:"holdings"`
}

// TotalsResponse describes the vault-wide aggregate and limits. USD amounts
// are canonical units; TotalDepositedDollars is the same total in dollars.
type TotalsResponse struct {
	TotalDepositedUSD     string   `json:"total_deposited_usd"`
	TotalDepositedDollars string   `json:"total_deposited_dollars"`
	MaxCapacityUSD        string   `json:"max_capacity_usd"`
	RemainingCapacityUSD  string   `json:"remaining_capacity_usd"`
	MaxWithdrawal         string   `json:"max_withdrawal"`
	SupportedAssets       []string `json:"supported_assets"`
}

// AssetResponse is a registry entry
type AssetResponse struct {
	Asset     string  `json:"asset"`
	Supported bool    `json:"supported"`
	Feed      *string `json:"feed,omitempty"`
	Decimals  uint8   `json:"decimals"`
}

// SupportAssetRequest adds an asset to the registry. Decimals are read from
// the token when omitted.
type SupportAssetRequest struct {
	Asset    string  `json:"asset"`
	Feed     *string `json:"feed,omitempty"`
	Decimals *uint8  `json:"decimals,omitempty"`
}

// SetFeedRequest rebinds an asset's price feed
type SetFeedRequest struct {
	Feed string `json:"feed"`
}

// ToResponse renders e for the wire.
func (e Event) ToResponse() EventResponse {
	return EventResponse{
		ID:       e.ID.String(),
		Kind:     string(e.Kind),
		User:     e.User.Hex(),
		Asset:    asset.Label(e.Asset),
		Amount:   e.Amount.String(),
		USDValue: e.USDValue.String(),
		At:       e.At,
		Pending:  e.Pending,
	}
}

// ToResponse renders a for the wire.
func (a Account) ToResponse() AccountResponse {
	resp := AccountResponse{
		User:        a.User.Hex(),
		Deposits:    a.Deposits,
		Withdrawals: a.Withdrawals,
		Holdings:    make([]HoldingResponse, 0, len(a.Holdings)),
	}
	total := new(big.Int)
	for _, h := range a.Holdings {
		total.Add(total, h.USDValue)
		resp.Holdings = append(resp.Holdings, HoldingResponse{
			Asset:    asset.Label(h.Asset),
			Amount:   h.Amount.String(),
			USDValue: h.USDValue.String(),
		})
	}
	resp.TotalUSDValue = total.String()
	return resp
}

// AssetToResponse renders a registry entry for the wire.
func AssetToResponse(e registry.Entry) AssetResponse {
	resp := AssetResponse{
		Asset:     e.Asset.Hex(),
		Supported: e.Supported,
		Decimals:  e.Decimals,
	}
	if e.Feed != nil {
		feed := e.Feed.Hex()
		resp.Feed = &feed
	}
	return resp
}
