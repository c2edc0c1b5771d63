// Package vault implements the custodial balance ledger: per-user multi-asset
// balances, the USD capacity cap and per-withdrawal cap, and the deposit and
// withdraw transitions that move assets through a Transport.
package vault

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
	"github.com/chainsafe/vault-ledger/pkg/registry"
)

// Config holds the limits fixed at construction.
type Config struct {
	// MaxWithdrawal caps a single withdrawal, in the withdrawn asset's native units.
	MaxWithdrawal *big.Int
	// MaxCapacityUSD caps the aggregate deposited value, in canonical USD units.
	MaxCapacityUSD *big.Int
	// NativeFeed is the feed that prices the native asset.
	NativeFeed asset.ID
	// NativeDecimals defaults to asset.DefaultNativeDecimals when zero.
	NativeDecimals uint8
	// PriceMaxAge rejects feed answers older than this. Zero trusts the latest answer.
	PriceMaxAge time.Duration
}

func (c Config) validate() error {
	if c.MaxWithdrawal == nil || c.MaxWithdrawal.Sign() <= 0 {
		return fmt.Errorf("%w: max withdrawal must be positive", ErrInvalidConfiguration)
	}
	if c.MaxCapacityUSD == nil || c.MaxCapacityUSD.Sign() <= 0 {
		return fmt.Errorf("%w: max capacity must be positive", ErrInvalidConfiguration)
	}
	if asset.IsNative(c.NativeFeed) {
		return fmt.Errorf("%w: native price feed is required", ErrInvalidConfiguration)
	}
	if c.PriceMaxAge < 0 {
		return fmt.Errorf("%w: price max age must not be negative", ErrInvalidConfiguration)
	}
	return nil
}

// Transport moves assets in and out of custody. An error wrapping
// ErrTransferPending means the transfer was submitted with an unknown
// outcome; any other non-nil error is a failed transfer, whatever the
// underlying asset reported.
type Transport interface {
	TransferIn(ctx context.Context, id asset.ID, from asset.ID, amount *big.Int) error
	TransferOut(ctx context.Context, id asset.ID, to asset.ID, amount *big.Int) error
}

// TokenMetadata resolves the precision of a secondary asset.
type TokenMetadata interface {
	Decimals(ctx context.Context, id asset.ID) (uint8, error)
}

// Recorder receives every committed deposit and withdrawal, in commit order.
// Errors are logged and do not affect the ledger.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// PriceSource prices an asset with asset.PriceDecimals decimals.
type PriceSource interface {
	PriceOf(ctx context.Context, id asset.ID) (*big.Int, error)
}

type holding struct {
	amount *big.Int
	// book is the USD value this entry contributes to the aggregate.
	book *big.Int
}

type account struct {
	deposits    uint64
	withdrawals uint64
	holdings    map[asset.ID]*holding
}

// token identifies one holder of the mutation lock.
type token struct{ _ byte }

type ownerKey struct{}

// Vault is the balance ledger. All mutations are serialized; a call made with
// the context handed to a Transport runs inside the caller's critical section.
type Vault struct {
	cfg       Config
	registry  *registry.Registry
	prices    PriceSource
	transport Transport
	metadata  TokenMetadata
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	owner    atomic.Pointer[token]
	accounts map[asset.ID]*account
	total    *big.Int
	pending  []Event
}

// Option configures a Vault.
type Option func(*Vault)

// WithTokenMetadata sets the lookup used when an asset is supported without
// explicit decimals.
func WithTokenMetadata(m TokenMetadata) Option {
	return func(v *Vault) {
		v.metadata = m
	}
}

// WithRecorder sets the sink for committed ledger events.
func WithRecorder(r Recorder) Option {
	return func(v *Vault) {
		v.recorder = r
	}
}

// WithPriceSource replaces the oracle adapter built from the feed.
func WithPriceSource(p PriceSource) Option {
	return func(v *Vault) {
		v.prices = p
	}
}

// WithClock overrides the clock used for event timestamps and price staleness.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) {
		v.now = now
	}
}

// New creates a vault. feed answers price queries for the native feed and for
// every feed bound in reg.
func New(cfg Config, reg *registry.Registry, feed oracle.Feed, transport Transport, logger *zap.Logger, opts ...Option) (*Vault, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidConfiguration)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrInvalidConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NativeDecimals == 0 {
		cfg.NativeDecimals = asset.DefaultNativeDecimals
	}
	cfg.MaxWithdrawal = new(big.Int).Set(cfg.MaxWithdrawal)
	cfg.MaxCapacityUSD = new(big.Int).Set(cfg.MaxCapacityUSD)

	v := &Vault{
		cfg:       cfg,
		registry:  reg,
		transport: transport,
		logger:    logger,
		now:       time.Now,
		accounts:  make(map[asset.ID]*account),
		total:     new(big.Int),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.prices == nil {
		if feed == nil {
			return nil, fmt.Errorf("%w: price feed is required", ErrInvalidConfiguration)
		}
		v.prices = oracle.NewAdapter(feed, cfg.NativeFeed, reg,
			oracle.WithMaxAge(cfg.PriceMaxAge),
			oracle.WithClock(v.now))
	}
	return v, nil
}

// Config returns a copy of the immutable configuration.
func (v *Vault) Config() Config {
	c := v.cfg
	c.MaxWithdrawal = new(big.Int).Set(v.cfg.MaxWithdrawal)
	c.MaxCapacityUSD = new(big.Int).Set(v.cfg.MaxCapacityUSD)
	return c
}

// section is one entry into the critical section.
type section struct {
	v     *Vault
	op    string
	outer bool
	start time.Time
}

func (v *Vault) holds(ctx context.Context) bool {
	t, ok := ctx.Value(ownerKey{}).(*token)
	return ok && t != nil && v.owner.Load() == t
}

// lock enters the critical section. A context already owning it re-enters
// without blocking.
func (v *Vault) lock(ctx context.Context, op string) (context.Context, *section) {
	s := &section{v: v, op: op, start: time.Now()}
	if v.holds(ctx) {
		return ctx, s
	}
	v.mu.Lock()
	t := &token{}
	v.owner.Store(t)
	s.outer = true
	return context.WithValue(ctx, ownerKey{}, t), s
}

// done leaves the critical section. The outermost exit publishes the events
// committed during the call chain and releases the lock.
func (s *section) done(ctx context.Context, err error) {
	metrics.OperationsTotal.WithLabelValues(s.op, statusOf(err)).Inc()
	if !s.outer {
		return
	}
	v := s.v
	events := v.pending
	v.pending = nil
	v.publish(ctx, events)
	v.owner.Store(nil)
	v.mu.Unlock()
	metrics.OperationDuration.WithLabelValues(s.op).Observe(time.Since(s.start).Seconds())
}

// rlock takes the read lock unless ctx already owns the critical section.
func (v *Vault) rlock(ctx context.Context) func() {
	if v.holds(ctx) {
		return func() {}
	}
	v.mu.RLock()
	return v.mu.RUnlock
}

func (v *Vault) publish(ctx context.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	for _, e := range events {
		v.logger.Info("Ledger event committed",
			zap.String("id", e.ID.String()),
			zap.String("kind", string(e.Kind)),
			zap.String("user", e.User.Hex()),
			zap.String("asset", asset.Label(e.Asset)),
			zap.String("amount", e.Amount.String()),
			zap.String("usd_value", e.USDValue.String()),
			zap.String("total_usd", v.total.String()))
		metrics.DepositedUSD.WithLabelValues(string(e.Kind)).Observe(usdFloat(e.USDValue))
		if v.recorder != nil {
			if err := v.recorder.Record(ctx, e); err != nil {
				metrics.ErrorsTotal.WithLabelValues("vault", "record_event").Inc()
				v.logger.Warn("Failed to record ledger event",
					zap.String("id", e.ID.String()),
					zap.Error(err))
			}
		}
	}
	v.observeTotal()
}

// unconfirmed flags e as pending and reports the transfer for reconciliation.
func (v *Vault) unconfirmed(direction string, e *Event, err error) {
	e.Pending = true
	metrics.TransfersPending.WithLabelValues(direction).Inc()
	v.logger.Warn("Transfer outcome unknown, keeping ledger entry",
		zap.String("id", e.ID.String()),
		zap.String("kind", string(e.Kind)),
		zap.String("user", e.User.Hex()),
		zap.String("asset", asset.Label(e.Asset)),
		zap.String("amount", e.Amount.String()),
		zap.Error(err))
}

func (v *Vault) observeTotal() {
	metrics.TotalDepositedUSD.Set(usdFloat(v.total))
	util, _ := new(big.Rat).SetFrac(v.total, v.cfg.MaxCapacityUSD).Float64()
	metrics.CapacityUtilization.Set(util)
}

func usdFloat(x *big.Int) float64 {
	return decimal.NewFromBigInt(x, -int32(asset.CanonicalDecimals)).InexactFloat64()
}

func (v *Vault) accountFor(user asset.ID) *account {
	a, ok := v.accounts[user]
	if !ok {
		a = &account{holdings: make(map[asset.ID]*holding)}
		v.accounts[user] = a
	}
	return a
}

func (v *Vault) holdingFor(user, id asset.ID) *holding {
	a := v.accountFor(user)
	h, ok := a.holdings[id]
	if !ok {
		h = &holding{amount: new(big.Int), book: new(big.Int)}
		a.holdings[id] = h
	}
	return h
}

// adjust moves a holding by the given deltas.
func (v *Vault) adjust(fx *effects, h *holding, amount, book *big.Int) {
	amount, book = new(big.Int).Set(amount), new(big.Int).Set(book)
	h.amount.Add(h.amount, amount)
	h.book.Add(h.book, book)
	fx.record(func() {
		h.amount.Sub(h.amount, amount)
		h.book.Sub(h.book, book)
	})
}

func (v *Vault) addTotal(fx *effects, delta *big.Int) {
	delta = new(big.Int).Set(delta)
	v.total.Add(v.total, delta)
	fx.record(func() {
		v.total.Sub(v.total, delta)
	})
}

func (v *Vault) countDeposit(fx *effects, a *account) {
	a.deposits++
	fx.record(func() { a.deposits-- })
}

func (v *Vault) countWithdrawal(fx *effects, a *account) {
	a.withdrawals++
	fx.record(func() { a.withdrawals-- })
}

func (v *Vault) decimalsOf(id asset.ID) (uint8, error) {
	if asset.IsNative(id) {
		return v.cfg.NativeDecimals, nil
	}
	d, ok := v.registry.Decimals(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAssetNotSupported, asset.Label(id))
	}
	return d, nil
}

// value prices amount of id in canonical USD units.
func (v *Vault) value(ctx context.Context, id asset.ID, amount *big.Int) (*big.Int, error) {
	decimals, err := v.decimalsOf(id)
	if err != nil {
		return nil, err
	}
	price, err := v.prices.PriceOf(ctx, id)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("oracle", statusOf(err)).Inc()
		return nil, err
	}
	return asset.USDValue(amount, decimals, price), nil
}

// checkCapacity rejects usd if adding it to the aggregate exceeds the cap.
func (v *Vault) checkCapacity(usd *big.Int) error {
	next := new(big.Int).Add(v.total, usd)
	if next.Cmp(v.cfg.MaxCapacityUSD) > 0 {
		return fmt.Errorf("%w: total would be %s, capacity %s", ErrCapacityExceeded, next, v.cfg.MaxCapacityUSD)
	}
	return nil
}
