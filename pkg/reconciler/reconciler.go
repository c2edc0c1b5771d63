// Package reconciler periodically audits the vault ledger: it recomputes the
// aggregate from individual balances, revalues holdings at current prices and
// compares the in-memory ledger with its persisted copy.
package reconciler

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/vault"
)

const passTimeout = 2 * time.Minute

// Ledger is the view of the vault the reconciler needs.
type Ledger interface {
	Audit(ctx context.Context) vault.AuditReport
	Revalue(ctx context.Context) (*big.Int, error)
	Snapshot(ctx context.Context) vault.Snapshot
}

// SnapshotLoader reads the persisted ledger.
type SnapshotLoader interface {
	Load(ctx context.Context) (vault.Snapshot, error)
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	Audit vault.AuditReport
	// MarketValue is nil when holdings could not be revalued; RevalueErr
	// says why. Neither affects Healthy.
	MarketValue *big.Int
	RevalueErr  error
	// PersistedDrift is nil when no store is configured.
	PersistedDrift *big.Int
	// Mismatches lists entries whose persisted copy differs.
	Mismatches []string
}

// Healthy reports whether the pass found nothing to act on.
func (r Result) Healthy() bool {
	return r.Audit.Consistent() &&
		(r.PersistedDrift == nil || r.PersistedDrift.Sign() == 0) &&
		len(r.Mismatches) == 0
}

// Reconciler runs ledger audits
type Reconciler struct {
	ledger Ledger
	store  SnapshotLoader
	logger *zap.Logger

	mu   sync.RWMutex
	last *Result

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// New creates a new Reconciler. store may be nil.
func New(ledger Ledger, store SnapshotLoader, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		ledger: ledger,
		store:  store,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// ReconcileAll runs one audit pass and publishes its gauges. Audit findings
// and a failed revaluation are reported through the result, not as an
// error; an error means the pass itself could not complete.
func (r *Reconciler) ReconcileAll(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{Audit: r.ledger.Audit(ctx)}
	metrics.LedgerDriftUSD.Set(usdFloat(res.Audit.Drift))

	market, err := r.ledger.Revalue(ctx)
	if err != nil {
		res.RevalueErr = fmt.Errorf("failed to revalue holdings: %w", err)
		metrics.ErrorsTotal.WithLabelValues("reconciler", "revalue").Inc()
		r.logger.Warn("Skipping market revaluation", zap.Error(err))
	} else {
		res.MarketValue = market
		metrics.MarketValueUSD.Set(usdFloat(market))
	}

	if r.store != nil {
		if err := r.comparePersisted(ctx, &res); err != nil {
			metrics.AuditRuns.WithLabelValues("error").Inc()
			return res, err
		}
	}

	status := "consistent"
	if !res.Healthy() {
		status = "inconsistent"
		r.logger.Error("Ledger audit found inconsistencies",
			zap.String("recorded_usd", res.Audit.Recorded.String()),
			zap.String("recomputed_usd", res.Audit.Recomputed.String()),
			zap.String("drift_usd", res.Audit.Drift.String()),
			zap.Strings("violations", res.Audit.Violations),
			zap.Strings("persisted_mismatches", res.Mismatches))
	}
	metrics.AuditRuns.WithLabelValues(status).Inc()
	metrics.LastAuditTimestamp.SetToCurrentTime()

	r.logger.Info("Ledger reconciliation completed",
		zap.String("status", status),
		zap.Int("accounts", res.Audit.Accounts),
		zap.Int("holdings", res.Audit.Holdings),
		zap.Bool("revalued", res.MarketValue != nil),
		zap.Duration("duration", time.Since(start)))

	r.mu.Lock()
	r.last = &res
	r.mu.Unlock()
	return res, nil
}

// usdFloat renders canonical USD units as dollars for a gauge.
func usdFloat(x *big.Int) float64 {
	return decimal.NewFromBigInt(x, -int32(asset.CanonicalDecimals)).InexactFloat64()
}

// comparePersisted diffs the in-memory ledger against the store. The two
// reads are not atomic, so a movement committed in between shows up as a
// transient mismatch that clears on the next pass.
func (r *Reconciler) comparePersisted(ctx context.Context, res *Result) error {
	live := r.ledger.Snapshot(ctx)
	stored, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted ledger: %w", err)
	}

	res.PersistedDrift = new(big.Int).Sub(live.Total, stored.Total)
	metrics.PersistedDriftUSD.Set(usdFloat(res.PersistedDrift))

	type key struct{ user, id asset.ID }
	want := make(map[key]vault.Holding)
	for _, a := range live.Accounts {
		for _, h := range a.Holdings {
			want[key{a.User, h.Asset}] = h
		}
	}
	for _, a := range stored.Accounts {
		for _, h := range a.Holdings {
			k := key{a.User, h.Asset}
			w, ok := want[k]
			delete(want, k)
			if !ok || w.Amount.Cmp(h.Amount) != 0 || w.USDValue.Cmp(h.USDValue) != 0 {
				res.Mismatches = append(res.Mismatches, fmt.Sprintf("%s/%s", a.User.Hex(), asset.Label(h.Asset)))
			}
		}
	}
	for k := range want {
		res.Mismatches = append(res.Mismatches, fmt.Sprintf("%s/%s not persisted", k.user.Hex(), asset.Label(k.id)))
	}
	return nil
}

// Last returns the result of the most recent completed pass.
func (r *Reconciler) Last() (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

// StartPeriodicReconciliation starts a background goroutine that reconciles periodically
func (r *Reconciler) StartPeriodicReconciliation(interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger.Info("Started periodic reconciliation", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
				if _, err := r.ReconcileAll(ctx); err != nil {
					r.logger.Error("Periodic reconciliation failed", zap.Error(err))
				}
				cancel()
			case <-r.stopCh:
				r.logger.Info("Stopping periodic reconciliation")
				return
			}
		}
	}()
}

// Stop stops the periodic reconciliation. It is safe to call more than once.
func (r *Reconciler) Stop() {
	r.once.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
