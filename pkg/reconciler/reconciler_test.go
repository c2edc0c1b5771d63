package reconciler

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/internal/metrics"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/transfer"
	"github.com/chainsafe/vault-ledger/pkg/vault"
)

var (
	admin    = common.HexToAddress("0xad")
	alice    = common.HexToAddress("0xa11ce")
	usdc     = common.HexToAddress("0xa0b8")
	ethFeed  = common.HexToAddress("0xfeed01")
	usdcFeed = common.HexToAddress("0xfeed02")
)

// MockStore is a func-field implementation of SnapshotLoader
type MockStore struct {
	LoadFunc func(ctx context.Context) (vault.Snapshot, error)
}

func (m *MockStore) Load(ctx context.Context) (vault.Snapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return vault.Snapshot{Total: new(big.Int)}, nil
}

func price(dollars int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(dollars), big.NewInt(100_000_000))
}

func newLedger(t *testing.T) (*vault.Vault, *oracle.StaticFeed) {
	t.Helper()
	ctx := context.Background()

	feed := oracle.NewStaticFeed()
	feed.Set(ethFeed, price(2000))
	feed.Set(usdcFeed, price(1))

	mem := transfer.NewMemory()
	mem.Mint(alice, usdc, big.NewInt(1_000_000_000))

	v, err := vault.New(vault.Config{
		MaxWithdrawal:  big.NewInt(1_000_000_000_000_000_000),
		MaxCapacityUSD: big.NewInt(1_000_000_000_000),
		NativeFeed:     ethFeed,
	}, registry.New(auth.NewStaticAdmins(admin)), feed, mem, zap.NewNop())
	require.NoError(t, err)

	decimals := uint8(6)
	require.NoError(t, v.SupportAsset(ctx, admin, usdc, &usdcFeed, &decimals))
	_, err = v.Deposit(ctx, alice, usdc, big.NewInt(100_000_000))
	require.NoError(t, err)
	_, err = v.DepositNative(ctx, alice, big.NewInt(500_000_000_000_000_000))
	require.NoError(t, err)
	return v, feed
}

func TestReconcileAll_ConsistentLedger(t *testing.T) {
	ctx := context.Background()
	v, feed := newLedger(t)

	store := &MockStore{LoadFunc: func(ctx context.Context) (vault.Snapshot, error) {
		return v.Snapshot(ctx), nil
	}}
	r := New(v, store, zap.NewNop())

	res, err := r.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.True(t, res.Healthy())
	assert.Equal(t, "1100000000", res.MarketValue.String())
	assert.Equal(t, int64(0), res.PersistedDrift.Int64())

	// market moves do not affect consistency, only the revaluation
	feed.Set(ethFeed, price(4000))
	res, err = r.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.True(t, res.Healthy())
	assert.Equal(t, "2100000000", res.MarketValue.String())
	assert.Equal(t, "1100000000", res.Audit.Recorded.String())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, res.MarketValue, last.MarketValue)
}

func TestReconcileAll_WithoutStore(t *testing.T) {
	v, _ := newLedger(t)
	r := New(v, nil, zap.NewNop())

	_, ok := r.Last()
	assert.False(t, ok)

	res, err := r.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.PersistedDrift)
	assert.True(t, res.Healthy())
}

func TestReconcileAll_DetectsPersistedMismatch(t *testing.T) {
	ctx := context.Background()
	v, _ := newLedger(t)

	store := &MockStore{LoadFunc: func(ctx context.Context) (vault.Snapshot, error) {
		s := v.Snapshot(ctx)
		// the database missed the native deposit
		s.Total = big.NewInt(100_000_000)
		s.Accounts[0].Holdings = s.Accounts[0].Holdings[1:]
		return s, nil
	}}
	r := New(v, store, zap.NewNop())

	res, err := r.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.False(t, res.Healthy())
	assert.True(t, res.Audit.Consistent(), "the in-memory ledger itself is fine")
	assert.Equal(t, "1000000000", res.PersistedDrift.String())
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0], "not persisted")
}

func TestReconcileAll_Errors(t *testing.T) {
	ctx := context.Background()
	v, feed := newLedger(t)

	r := New(v, &MockStore{LoadFunc: func(context.Context) (vault.Snapshot, error) {
		return vault.Snapshot{}, errors.New("connection refused")
	}}, zap.NewNop())
	_, err := r.ReconcileAll(ctx)
	require.ErrorContains(t, err, "persisted ledger")

	feed.Fail(usdcFeed, errors.New("feed down"))
	_, err = New(v, nil, zap.NewNop()).ReconcileAll(ctx)
	require.NoError(t, err, "a feed outage does not fail the pass")
}

func TestReconcileAll_FeedOutageKeepsAudit(t *testing.T) {
	ctx := context.Background()
	v, feed := newLedger(t)
	r := New(v, nil, zap.NewNop())

	feed.Fail(ethFeed, errors.New("rpc down"))
	res, err := r.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, res.MarketValue)
	require.ErrorContains(t, res.RevalueErr, "rpc down")
	assert.True(t, res.Healthy())
	assert.Equal(t, "1100000000", res.Audit.Recorded.String())

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, res.Audit.Recomputed, last.Audit.Recomputed)
	assert.Error(t, last.RevalueErr)

	// once the feed is back the next pass revalues again
	feed.Set(ethFeed, price(2000))
	res, err = r.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.NoError(t, res.RevalueErr)
	assert.Equal(t, "1100000000", res.MarketValue.String())
}

// fixedLedger reports a canned audit and snapshot
type fixedLedger struct {
	report vault.AuditReport
	snap   vault.Snapshot
}

func (l fixedLedger) Audit(context.Context) vault.AuditReport { return l.report }

func (l fixedLedger) Revalue(context.Context) (*big.Int, error) { return l.report.Recomputed, nil }

func (l fixedLedger) Snapshot(context.Context) vault.Snapshot { return l.snap }

func TestReconcileAll_DriftGaugesInDollars(t *testing.T) {
	// 10^20 canonical units does not fit in an int64
	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)
	ledger := fixedLedger{
		report: vault.AuditReport{
			Recorded:   new(big.Int).Add(huge, big.NewInt(2_500_000)),
			Recomputed: big.NewInt(2_500_000),
			Drift:      huge,
		},
		snap: vault.Snapshot{Total: big.NewInt(7_250_000)},
	}
	store := &MockStore{LoadFunc: func(context.Context) (vault.Snapshot, error) {
		return vault.Snapshot{Total: big.NewInt(2_000_000)}, nil
	}}

	res, err := New(ledger, store, zap.NewNop()).ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Healthy())
	assert.InDelta(t, 1e14, testutil.ToFloat64(metrics.LedgerDriftUSD), 1)
	assert.InDelta(t, 5.25, testutil.ToFloat64(metrics.PersistedDriftUSD), 1e-9)
	assert.InDelta(t, 2.5, testutil.ToFloat64(metrics.MarketValueUSD), 1e-9)
}

func TestPeriodicReconciliation_StopIsIdempotent(t *testing.T) {
	v, _ := newLedger(t)
	r := New(v, nil, zap.NewNop())

	r.StartPeriodicReconciliation(5 * time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := r.Last()
		return ok
	}, time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop()
}
