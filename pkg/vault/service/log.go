package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/vault-ledger/pkg/app/errors"
	"github.com/chainsafe/vault-ledger/pkg/vault"
)

const serviceName = "VaultService"

const (
	logMessageMaxLen     = 50
	signatureDisplaySize = 16
)

// logService wraps Service with logging of every call
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the vault Service.
// It logs method entry and exit, duration, and errors. Client errors are
// logged at warn level, internal ones at error level.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger.With(zap.String("component", serviceName)),
	}
}

// finish logs the outcome of method with the given fields.
func (ls *logService) finish(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)))
	switch {
	case err == nil:
		ls.logger.Info(method+" completed", fields...)
	case apperrors.IsInternalError(err):
		ls.logger.Error(method+" failed", append(fields, zap.Error(err))...)
	default:
		ls.logger.Warn(method+" rejected", append(fields, zap.Error(err))...)
	}
}

func (ls *logService) Login(ctx context.Context, req *vault.LoginRequest) (resp *vault.LoginResponse, err error) {
	start := time.Now()
	ls.logger.Debug("Login started",
		zap.String("message", truncateString(req.Message, logMessageMaxLen)),
		zap.String("signature", redactSignature(req.Signature)))

	defer func() {
		var fields []zap.Field
		if resp != nil {
			fields = append(fields,
				zap.String("evm_address", resp.Address),
				zap.Time("expires_at", resp.ExpiresAt))
		}
		ls.finish("Login", start, err, fields...)
	}()

	return ls.svc.Login(ctx, req)
}

func (ls *logService) Deposit(ctx context.Context, caller common.Address, req *vault.DepositRequest) (resp *vault.EventResponse, err error) {
	start := time.Now()
	ls.logger.Debug("Deposit started",
		zap.String("evm_address", caller.Hex()),
		zap.String("asset", req.Asset),
		zap.String("amount", req.Amount))

	defer func() {
		fields := []zap.Field{
			zap.String("evm_address", caller.Hex()),
			zap.String("asset", req.Asset),
			zap.String("amount", req.Amount),
		}
		if resp != nil {
			fields = append(fields,
				zap.String("event_id", resp.ID),
				zap.String("usd_value", resp.USDValue))
		}
		ls.finish("Deposit", start, err, fields...)
	}()

	return ls.svc.Deposit(ctx, caller, req)
}

func (ls *logService) Withdraw(ctx context.Context, caller common.Address, req *vault.WithdrawRequest) (resp *vault.EventResponse, err error) {
	start := time.Now()
	ls.logger.Debug("Withdraw started",
		zap.String("evm_address", caller.Hex()),
		zap.String("asset", req.Asset),
		zap.String("amount", req.Amount))

	defer func() {
		fields := []zap.Field{
			zap.String("evm_address", caller.Hex()),
			zap.String("asset", req.Asset),
			zap.String("amount", req.Amount),
		}
		if resp != nil {
			fields = append(fields,
				zap.String("event_id", resp.ID),
				zap.String("usd_value", resp.USDValue))
		}
		ls.finish("Withdraw", start, err, fields...)
	}()

	return ls.svc.Withdraw(ctx, caller, req)
}

func (ls *logService) Account(ctx context.Context, caller common.Address) (resp *vault.AccountResponse, err error) {
	start := time.Now()
	defer func() {
		ls.finish("Account", start, err, zap.String("evm_address", caller.Hex()))
	}()
	return ls.svc.Account(ctx, caller)
}

func (ls *logService) History(ctx context.Context, caller common.Address, limit int) (resp []vault.EventResponse, err error) {
	start := time.Now()
	defer func() {
		ls.finish("History", start, err,
			zap.String("evm_address", caller.Hex()),
			zap.Int("limit", limit),
			zap.Int("returned", len(resp)))
	}()
	return ls.svc.History(ctx, caller, limit)
}

func (ls *logService) Totals(ctx context.Context) (resp *vault.TotalsResponse, err error) {
	start := time.Now()
	defer func() { ls.finish("Totals", start, err) }()
	return ls.svc.Totals(ctx)
}

func (ls *logService) Assets(ctx context.Context) (resp []vault.AssetResponse, err error) {
	start := time.Now()
	defer func() { ls.finish("Assets", start, err, zap.Int("returned", len(resp))) }()
	return ls.svc.Assets(ctx)
}

func (ls *logService) SupportAsset(ctx context.Context, caller common.Address, req *vault.SupportAssetRequest) (resp *vault.AssetResponse, err error) {
	start := time.Now()
	defer func() {
		ls.finish("SupportAsset", start, err,
			zap.String("caller", caller.Hex()),
			zap.String("asset", req.Asset),
			zap.Bool("feed_given", req.Feed != nil),
			zap.Bool("decimals_given", req.Decimals != nil))
	}()
	return ls.svc.SupportAsset(ctx, caller, req)
}

func (ls *logService) UnsupportAsset(ctx context.Context, caller common.Address, id string) (err error) {
	start := time.Now()
	defer func() {
		ls.finish("UnsupportAsset", start, err,
			zap.String("caller", caller.Hex()),
			zap.String("asset", id))
	}()
	return ls.svc.UnsupportAsset(ctx, caller, id)
}

func (ls *logService) SetAssetFeed(ctx context.Context, caller common.Address, id string, req *vault.SetFeedRequest) (resp *vault.AssetResponse, err error) {
	start := time.Now()
	defer func() {
		ls.finish("SetAssetFeed", start, err,
			zap.String("caller", caller.Hex()),
			zap.String("asset", id),
			zap.String("feed", req.Feed))
	}()
	return ls.svc.SetAssetFeed(ctx, caller, id, req)
}

// truncateString limits string length for logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// redactSignature shows only the edges and length of a signature
func redactSignature(sig string) string {
	if sig == "" {
		return "<empty>"
	}
	n := len(sig)
	if n > signatureDisplaySize {
		return fmt.Sprintf("%s...%s (%d bytes)", sig[:8], sig[n-4:], n)
	}
	return fmt.Sprintf("<%d bytes>", n)
}
