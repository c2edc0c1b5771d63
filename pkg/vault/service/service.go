package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	apperrors "github.com/chainsafe/vault-ledger/pkg/app/errors"
	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/ethereum"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/vault"
	"github.com/chainsafe/vault-ledger/pkg/vaultstore"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var (
	ErrNativeDepositUnavailable = errors.New("native deposits are not available on this transport")
	ErrHistoryUnavailable       = errors.New("history requires a database")
)

// Ledger is the vault surface the service drives. *vault.Vault satisfies it.
type Ledger interface {
	Deposit(ctx context.Context, user, id asset.ID, amount *big.Int) (vault.Event, error)
	DepositNative(ctx context.Context, user asset.ID, value *big.Int) (vault.Event, error)
	Withdraw(ctx context.Context, user, id asset.ID, amount *big.Int) (vault.Event, error)
	Account(ctx context.Context, user asset.ID) vault.Account
	TotalDeposited(ctx context.Context) *big.Int
	SupportedAssets(ctx context.Context) []asset.ID
	AssetEntries(ctx context.Context) []registry.Entry
	SupportAsset(ctx context.Context, caller, id asset.ID, feed *asset.ID, decimals *uint8) error
	UnsupportAsset(ctx context.Context, caller, id asset.ID) error
	SetAssetFeed(ctx context.Context, caller, id, feed asset.ID) error
	Config() vault.Config
}

// EventStore is the persisted side of the ledger. It is optional.
type EventStore interface {
	ListEvents(ctx context.Context, q vaultstore.EventQuery) ([]vault.Event, error)
	SaveAssets(ctx context.Context, entries []registry.Entry) error
}

// Service is the vault business API exposed over HTTP.
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	Login(ctx context.Context, req *vault.LoginRequest) (*vault.LoginResponse, error)
	Deposit(ctx context.Context, caller common.Address, req *vault.DepositRequest) (*vault.EventResponse, error)
	Withdraw(ctx context.Context, caller common.Address, req *vault.WithdrawRequest) (*vault.EventResponse, error)
	Account(ctx context.Context, caller common.Address) (*vault.AccountResponse, error)
	History(ctx context.Context, caller common.Address, limit int) ([]vault.EventResponse, error)
	Totals(ctx context.Context) (*vault.TotalsResponse, error)
	Assets(ctx context.Context) ([]vault.AssetResponse, error)
	SupportAsset(ctx context.Context, caller common.Address, req *vault.SupportAssetRequest) (*vault.AssetResponse, error)
	UnsupportAsset(ctx context.Context, caller common.Address, id string) error
	SetAssetFeed(ctx context.Context, caller common.Address, id string, req *vault.SetFeedRequest) (*vault.AssetResponse, error)
}

type vaultService struct {
	ledger      Ledger
	transport   vault.Transport
	events      EventStore
	sessions    *auth.Sessions
	loginWindow time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the vault service. transport carries native deposits
// and may be nil when they are not offered; events may be nil when the
// vault runs without a database.
func NewService(
	ledger Ledger,
	transport vault.Transport,
	events EventStore,
	sessions *auth.Sessions,
	loginWindow time.Duration,
	logger *zap.Logger,
) Service {
	return &vaultService{
		ledger:      ledger,
		transport:   transport,
		events:      events,
		sessions:    sessions,
		loginWindow: loginWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// Login verifies a signed login message and opens a session for its signer.
func (s *vaultService) Login(_ context.Context, req *vault.LoginRequest) (*vault.LoginResponse, error) {
	if req.Message == "" || req.Signature == "" {
		return nil, apperrors.UnAuthorizedError(nil, "signature and message required")
	}
	caller, err := auth.VerifyLogin(req.Message, req.Signature, s.now(), s.loginWindow)
	if err != nil {
		if errors.Is(err, auth.ErrStaleLogin) {
			return nil, apperrors.UnAuthorizedError(err, "login message expired")
		}
		return nil, apperrors.UnAuthorizedError(err, "invalid signature")
	}
	token, exp, err := s.sessions.Issue(caller)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to issue session: %w", err))
	}
	return &vault.LoginResponse{
		Token:     token,
		Address:   caller.Hex(),
		ExpiresAt: exp,
	}, nil
}

// Deposit credits caller with amount of the requested asset. The native
// asset is pulled through the transport first and bounced back when the
// ledger refuses it.
func (s *vaultService) Deposit(ctx context.Context, caller common.Address, req *vault.DepositRequest) (*vault.EventResponse, error) {
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var ev vault.Event
	if asset.IsNative(id) {
		ev, err = s.depositNative(ctx, caller, amount)
	} else {
		ev, err = s.ledger.Deposit(ctx, caller, id, amount)
	}
	if err != nil {
		return nil, mapError(err)
	}
	resp := ev.ToResponse()
	return &resp, nil
}

func (s *vaultService) depositNative(ctx context.Context, caller common.Address, amount *big.Int) (vault.Event, error) {
	if s.transport == nil {
		return vault.Event{}, ErrNativeDepositUnavailable
	}
	pullErr := s.transport.TransferIn(ctx, asset.Native, caller, amount)
	switch {
	case pullErr == nil, errors.Is(pullErr, vault.ErrTransferPending):
	case errors.Is(pullErr, ethereum.ErrNativePull):
		return vault.Event{}, fmt.Errorf("%w: %w", ErrNativeDepositUnavailable, pullErr)
	default:
		return vault.Event{}, fmt.Errorf("%w: %w", vault.ErrTransferFailed, pullErr)
	}

	ev, err := s.ledger.DepositNative(ctx, caller, amount)
	if err == nil {
		ev.Pending = pullErr != nil
		return ev, nil
	}
	// the value already left the caller's wallet
	if bounceErr := s.transport.TransferOut(context.WithoutCancel(ctx), asset.Native, caller, amount); bounceErr != nil {
		metrics.TransferFailures.WithLabelValues("bounce").Inc()
		s.logger.Error("Failed to return refused native deposit",
			zap.String("user", caller.Hex()),
			zap.String("amount", amount.String()),
			zap.NamedError("deposit_error", err),
			zap.Error(bounceErr))
	}
	return vault.Event{}, err
}

// Withdraw sends amount of the requested asset back to caller.
func (s *vaultService) Withdraw(ctx context.Context, caller common.Address, req *vault.WithdrawRequest) (*vault.EventResponse, error) {
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	ev, err := s.ledger.Withdraw(ctx, caller, id, amount)
	if err != nil {
		return nil, mapError(err)
	}
	resp := ev.ToResponse()
	return &resp, nil
}

func (s *vaultService) Account(ctx context.Context, caller common.Address) (*vault.AccountResponse, error) {
	resp := s.ledger.Account(ctx, caller).ToResponse()
	return &resp, nil
}

// History returns caller's most recent movements, newest first.
func (s *vaultService) History(ctx context.Context, caller common.Address, limit int) ([]vault.EventResponse, error) {
	if s.events == nil {
		return nil, apperrors.NotSupportedError(ErrHistoryUnavailable, "history requires a database")
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}

	events, err := s.events.ListEvents(ctx, vaultstore.EventQuery{User: &caller, Limit: limit})
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to read history")
	}
	out := make([]vault.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, e.ToResponse())
	}
	return out, nil
}

// Totals reports the aggregate against the configured limits.
func (s *vaultService) Totals(ctx context.Context) (*vault.TotalsResponse, error) {
	cfg := s.ledger.Config()
	total := s.ledger.TotalDeposited(ctx)
	remaining := new(big.Int).Sub(cfg.MaxCapacityUSD, total)
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}

	supported := s.ledger.SupportedAssets(ctx)
	assets := make([]string, 0, len(supported))
	for _, id := range supported {
		assets = append(assets, id.Hex())
	}
	return &vault.TotalsResponse{
		TotalDepositedUSD:     total.String(),
		TotalDepositedDollars: asset.FormatUnits(total, asset.CanonicalDecimals),
		MaxCapacityUSD:        cfg.MaxCapacityUSD.String(),
		RemainingCapacityUSD:  remaining.String(),
		MaxWithdrawal:         cfg.MaxWithdrawal.String(),
		SupportedAssets:       assets,
	}, nil
}

func (s *vaultService) Assets(ctx context.Context) ([]vault.AssetResponse, error) {
	entries := s.ledger.AssetEntries(ctx)
	out := make([]vault.AssetResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, vault.AssetToResponse(e))
	}
	return out, nil
}

// SupportAsset adds an asset to the registry on behalf of an admin.
func (s *vaultService) SupportAsset(ctx context.Context, caller common.Address, req *vault.SupportAssetRequest) (*vault.AssetResponse, error) {
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}
	var feed *asset.ID
	if req.Feed != nil {
		f, err := parseAsset(*req.Feed)
		if err != nil {
			return nil, err
		}
		feed = &f
	}
	if err := s.ledger.SupportAsset(ctx, caller, id, feed, req.Decimals); err != nil {
		return nil, mapError(err)
	}
	return s.assetChanged(ctx, id)
}

// UnsupportAsset stops new deposits of an asset. Existing balances stay
// withdrawable.
func (s *vaultService) UnsupportAsset(ctx context.Context, caller common.Address, raw string) error {
	id, err := parseAsset(raw)
	if err != nil {
		return err
	}
	if err := s.ledger.UnsupportAsset(ctx, caller, id); err != nil {
		return mapError(err)
	}
	_, err = s.assetChanged(ctx, id)
	return err
}

// SetAssetFeed rebinds the price feed of a registered asset.
func (s *vaultService) SetAssetFeed(ctx context.Context, caller common.Address, raw string, req *vault.SetFeedRequest) (*vault.AssetResponse, error) {
	id, err := parseAsset(raw)
	if err != nil {
		return nil, err
	}
	feed, err := parseAsset(req.Feed)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.SetAssetFeed(ctx, caller, id, feed); err != nil {
		return nil, mapError(err)
	}
	return s.assetChanged(ctx, id)
}

// assetChanged persists the registry and returns id's entry. A failed write
// is logged; the in-memory registry stays authoritative until the next
// successful save.
func (s *vaultService) assetChanged(ctx context.Context, id asset.ID) (*vault.AssetResponse, error) {
	entries := s.ledger.AssetEntries(ctx)
	if s.events != nil {
		if err := s.events.SaveAssets(ctx, entries); err != nil {
			metrics.ErrorsTotal.WithLabelValues("service", "save_assets").Inc()
			s.logger.Warn("Failed to persist asset registry", zap.Error(err))
		}
	}
	for _, e := range entries {
		if e.Asset == id {
			resp := vault.AssetToResponse(e)
			return &resp, nil
		}
	}
	return nil, apperrors.ResourceNotFoundError(nil, "asset not registered")
}

func parseAsset(raw string) (asset.ID, error) {
	id, err := asset.ParseID(raw)
	if err != nil {
		return asset.ID{}, apperrors.BadRequestError(err, "invalid asset address")
	}
	return id, nil
}

// parseAmount reads a positive integer amount of base units.
func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, apperrors.BadRequestError(vault.ErrInvalidAmount, "amount must be a positive integer of base units")
	}
	return amount, nil
}

// mapError assigns a client-facing category to a ledger failure.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNativeDepositUnavailable),
		errors.Is(err, vault.ErrDirectTransferNotAllowed):
		return apperrors.NotSupportedError(err, "native deposits are not available")
	case errors.Is(err, vault.ErrTransferFailed):
		return apperrors.DependencyError(err, "asset transfer failed")
	case errors.Is(err, vault.ErrInvalidAmount):
		return apperrors.BadRequestError(err, "invalid amount")
	case errors.Is(err, vault.ErrInvalidAsset):
		return apperrors.BadRequestError(err, "invalid asset")
	case errors.Is(err, vault.ErrInvalidOracle):
		return apperrors.BadRequestError(err, "invalid price feed")
	case errors.Is(err, vault.ErrAssetNotSupported):
		return apperrors.BadRequestError(err, "asset not supported")
	case errors.Is(err, vault.ErrWithdrawalLimitExceeded):
		return apperrors.BadRequestError(err, "withdrawal limit exceeded")
	case errors.Is(err, vault.ErrInsufficientBalance):
		return apperrors.ConflictError(err, "insufficient balance")
	case errors.Is(err, vault.ErrCapacityExceeded):
		return apperrors.ConflictError(err, "vault capacity exceeded")
	case errors.Is(err, vault.ErrUnauthorized):
		return apperrors.ForbiddenError(err, "admin capability required")
	case errors.Is(err, vault.ErrOracleNotConfigured),
		errors.Is(err, vault.ErrStalePrice),
		errors.Is(err, vault.ErrInvalidPrice):
		return apperrors.DependencyError(err, "price unavailable")
	default:
		return apperrors.GeneralError(err)
	}
}
