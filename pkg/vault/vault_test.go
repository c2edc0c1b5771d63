package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/transfer"
)

var (
	admin      = common.HexToAddress("0xad")
	alice      = common.HexToAddress("0xa11ce")
	bob        = common.HexToAddress("0xb0b")
	usdc       = common.HexToAddress("0xa0b8")
	wbtc       = common.HexToAddress("0x2260")
	nativeFeed = common.HexToAddress("0xfeed01")
	usdcFeed   = common.HexToAddress("0xfeed02")
	wbtcFeed   = common.HexToAddress("0xfeed03")
)

// ether is n whole units of an 18-decimal asset.
func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func price(dollars int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(dollars), big.NewInt(100_000_000))
}

func usd(dollars int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(dollars), big.NewInt(1_000_000))
}

type memRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *memRecorder) Record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *memRecorder) recorded() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type fixture struct {
	vault *Vault
	feed  *oracle.StaticFeed
	mem   *transfer.Memory
	rec   *memRecorder
}

func newFixture(t *testing.T, capacity *big.Int) *fixture {
	t.Helper()
	ctx := context.Background()

	feed := oracle.NewStaticFeed()
	feed.Set(nativeFeed, price(2000))
	feed.Set(usdcFeed, price(1))
	feed.Set(wbtcFeed, price(50_000))

	mem := transfer.NewMemory()
	rec := &memRecorder{}
	reg := registry.New(auth.NewStaticAdmins(admin))

	v, err := New(Config{
		MaxWithdrawal:  ether(10),
		MaxCapacityUSD: capacity,
		NativeFeed:     nativeFeed,
	}, reg, feed, mem, zap.NewNop(), WithRecorder(rec))
	require.NoError(t, err)

	six, eight := uint8(6), uint8(8)
	require.NoError(t, v.SupportAsset(ctx, admin, usdc, &usdcFeed, &six))
	require.NoError(t, v.SupportAsset(ctx, admin, wbtc, &wbtcFeed, &eight))

	for _, u := range []common.Address{alice, bob} {
		mem.Mint(u, usdc, usd(1_000_000))
		mem.Mint(u, wbtc, big.NewInt(100_000_000_00))
	}
	return &fixture{vault: v, feed: feed, mem: mem, rec: rec}
}

func requireConsistent(t *testing.T, v *Vault) {
	t.Helper()
	r := v.Audit(context.Background())
	require.True(t, r.Consistent(), "drift %s, violations %v", r.Drift, r.Violations)
}

func TestNew_InvalidConfiguration(t *testing.T) {
	reg := registry.New(auth.NewStaticAdmins(admin))
	feed := oracle.NewStaticFeed()
	mem := transfer.NewMemory()
	valid := Config{MaxWithdrawal: ether(1), MaxCapacityUSD: usd(1), NativeFeed: nativeFeed}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing max withdrawal", func(c *Config) { c.MaxWithdrawal = nil }},
		{"zero max withdrawal", func(c *Config) { c.MaxWithdrawal = new(big.Int) }},
		{"zero capacity", func(c *Config) { c.MaxCapacityUSD = new(big.Int) }},
		{"negative capacity", func(c *Config) { c.MaxCapacityUSD = big.NewInt(-1) }},
		{"missing native feed", func(c *Config) { c.NativeFeed = asset.Native }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := New(cfg, reg, feed, mem, nil)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	_, err := New(valid, nil, feed, mem, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = New(valid, reg, feed, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = New(valid, reg, nil, mem, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	v, err := New(valid, reg, feed, mem, nil)
	require.NoError(t, err)
	assert.Equal(t, asset.DefaultNativeDecimals, v.Config().NativeDecimals)
}

func TestNew_ConfigIsCopied(t *testing.T) {
	limit := ether(1)
	v, err := New(Config{MaxWithdrawal: limit, MaxCapacityUSD: usd(1), NativeFeed: nativeFeed},
		registry.New(nil), oracle.NewStaticFeed(), transfer.NewMemory(), nil)
	require.NoError(t, err)

	limit.SetInt64(5)
	assert.Equal(t, ether(1), v.Config().MaxWithdrawal)

	v.Config().MaxCapacityUSD.SetInt64(0)
	assert.Equal(t, usd(1), v.Config().MaxCapacityUSD)
}

func TestDeposit_CreditsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))

	ev, err := f.vault.Deposit(ctx, alice, usdc, usd(500))
	require.NoError(t, err)
	assert.Equal(t, EventDeposit, ev.Kind)
	assert.Equal(t, usd(500), ev.USDValue)

	assert.Equal(t, usd(500), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, usd(500), f.vault.TotalDeposited(ctx))
	assert.Equal(t, usd(500), f.vault.TotalUSDValue(ctx, alice))
	assert.Equal(t, usd(500), f.mem.Custody(usdc))

	deposits, withdrawals := f.vault.Counters(ctx, alice)
	assert.Equal(t, uint64(1), deposits)
	assert.Equal(t, uint64(0), withdrawals)

	events := f.rec.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)
	requireConsistent(t, f.vault)
}

func TestDeposit_NormalizesDecimals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))

	// 0.5 wbtc at 8 decimals, priced at 50,000
	_, err := f.vault.Deposit(ctx, alice, wbtc, big.NewInt(50_000_000))
	require.NoError(t, err)
	assert.Equal(t, usd(25_000), f.vault.TotalDeposited(ctx))

	_, err = f.vault.DepositNative(ctx, alice, ether(2))
	require.NoError(t, err)
	assert.Equal(t, usd(29_000), f.vault.TotalUSDValue(ctx, alice))
	requireConsistent(t, f.vault)
}

func TestDeposit_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	unknown := common.HexToAddress("0x0bad")

	_, err := f.vault.Deposit(ctx, alice, usdc, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.vault.Deposit(ctx, alice, usdc, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.vault.Deposit(ctx, alice, unknown, usd(1))
	assert.ErrorIs(t, err, ErrAssetNotSupported)
	_, err = f.vault.Deposit(ctx, alice, asset.Native, ether(1))
	assert.ErrorIs(t, err, ErrAssetNotSupported)
	_, err = f.vault.DepositNative(ctx, alice, new(big.Int))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	assert.Empty(t, f.rec.recorded())
}

func TestDeposit_CapacityScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, big.NewInt(1_000_000_000))

	_, err := f.vault.Deposit(ctx, alice, usdc, usd(400))
	require.NoError(t, err)
	before := f.vault.Snapshot(ctx)

	// one native unit at 2,000 is worth 2,000,000,000 canonical units
	_, err = f.vault.DepositNative(ctx, alice, ether(1))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, before, f.vault.Snapshot(ctx))

	_, err = f.vault.Deposit(ctx, bob, usdc, usd(601))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, before, f.vault.Snapshot(ctx))
	assert.Equal(t, usd(1_000_000), f.mem.WalletBalance(bob, usdc), "rejected deposit must not pull funds")

	_, err = f.vault.Deposit(ctx, bob, usdc, usd(600))
	require.NoError(t, err, "filling the cap exactly is allowed")
	assert.Equal(t, big.NewInt(1_000_000_000), f.vault.TotalDeposited(ctx))
	requireConsistent(t, f.vault)
}

func TestDeposit_OracleFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	dai := common.HexToAddress("0xda1")
	eighteen := uint8(18)
	require.NoError(t, f.vault.SupportAsset(ctx, admin, dai, nil, &eighteen))
	f.mem.Mint(alice, dai, ether(10))

	_, err := f.vault.Deposit(ctx, alice, dai, ether(1))
	assert.ErrorIs(t, err, ErrOracleNotConfigured)

	down := errors.New("feed unreachable")
	f.feed.Fail(nativeFeed, down)
	_, err = f.vault.DepositNative(ctx, alice, ether(1))
	assert.ErrorIs(t, err, down)

	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	assert.Equal(t, ether(10), f.mem.WalletBalance(alice, dai))
}

func TestDeposit_TransferFailureReleasesReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	f.mem.FailWith(errors.New("allowance too low"))

	_, err := f.vault.Deposit(ctx, alice, usdc, usd(10))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	assert.Equal(t, 0, f.vault.Balance(ctx, alice, usdc).Sign())
	deposits, _ := f.vault.Counters(ctx, alice)
	assert.Zero(t, deposits)
	assert.Empty(t, f.rec.recorded())
	requireConsistent(t, f.vault)
}

func TestDeposit_ReentrantDepositSeesReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000))

	var inner error
	reentered := false
	f.mem.OnTransferIn(func(ctx context.Context, id, party common.Address, amount *big.Int) error {
		if reentered {
			return nil
		}
		reentered = true
		_, inner = f.vault.Deposit(ctx, party, usdc, usd(600))
		return nil
	})

	_, err := f.vault.Deposit(ctx, alice, usdc, usd(600))
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCapacityExceeded)
	assert.Equal(t, usd(600), f.vault.TotalDeposited(ctx))
	requireConsistent(t, f.vault)
}

func TestReceiveNative_AlwaysRejected(t *testing.T) {
	f := newFixture(t, usd(1_000_000))
	err := f.vault.ReceiveNative(context.Background(), alice, ether(1))
	assert.ErrorIs(t, err, ErrDirectTransferNotAllowed)
	assert.Equal(t, 0, f.vault.TotalDeposited(context.Background()).Sign())
}

func TestWithdraw_DebitsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(500))
	require.NoError(t, err)

	ev, err := f.vault.Withdraw(ctx, alice, usdc, usd(200))
	require.NoError(t, err)
	assert.Equal(t, EventWithdrawal, ev.Kind)
	assert.Equal(t, usd(200), ev.USDValue)

	assert.Equal(t, usd(300), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, usd(300), f.vault.TotalDeposited(ctx))
	assert.Equal(t, usd(1_000_000-300), f.mem.WalletBalance(alice, usdc))
	_, withdrawals := f.vault.Counters(ctx, alice)
	assert.Equal(t, uint64(1), withdrawals)
	assert.Len(t, f.rec.recorded(), 2)
	requireConsistent(t, f.vault)
}

func TestWithdraw_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.DepositNative(ctx, alice, ether(20))
	require.NoError(t, err)
	before := f.vault.Snapshot(ctx)

	_, err = f.vault.Withdraw(ctx, alice, asset.Native, big.NewInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.vault.Withdraw(ctx, alice, asset.Native, new(big.Int).Add(ether(10), big.NewInt(1)))
	assert.ErrorIs(t, err, ErrWithdrawalLimitExceeded)
	_, err = f.vault.Withdraw(ctx, bob, asset.Native, ether(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	assert.Equal(t, before, f.vault.Snapshot(ctx))
	assert.Len(t, f.rec.recorded(), 1)
}

func TestWithdraw_ReleasesBookValueProRata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	f.mem.Mint(alice, asset.Native, ether(2))
	require.NoError(t, f.mem.TransferIn(ctx, asset.Native, alice, ether(2)))

	_, err := f.vault.DepositNative(ctx, alice, ether(2))
	require.NoError(t, err)
	require.Equal(t, usd(4_000), f.vault.TotalDeposited(ctx))

	// the price moves; the aggregate keeps the value recorded at deposit time
	f.feed.Set(nativeFeed, price(3000))

	ev, err := f.vault.Withdraw(ctx, alice, asset.Native, ether(1))
	require.NoError(t, err)
	assert.Equal(t, usd(2_000), ev.USDValue)
	assert.Equal(t, usd(2_000), f.vault.TotalDeposited(ctx))

	market, err := f.vault.Revalue(ctx)
	require.NoError(t, err)
	assert.Equal(t, usd(3_000), market)

	ev, err = f.vault.Withdraw(ctx, alice, asset.Native, ether(1))
	require.NoError(t, err)
	assert.Equal(t, usd(2_000), ev.USDValue)
	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	requireConsistent(t, f.vault)
}

func TestWithdraw_ProRataNeverOverReleases(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))

	_, err := f.vault.Deposit(ctx, alice, usdc, big.NewInt(10))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.vault.Withdraw(ctx, alice, usdc, big.NewInt(3))
		require.NoError(t, err)
		requireConsistent(t, f.vault)
	}
	_, err = f.vault.Withdraw(ctx, alice, usdc, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	requireConsistent(t, f.vault)
}

func TestWithdraw_UnsupportedAssetStaysWithdrawable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(100))
	require.NoError(t, err)

	require.NoError(t, f.vault.UnsupportAsset(ctx, admin, usdc))
	assert.NotContains(t, f.vault.SupportedAssets(ctx), usdc)
	assert.Equal(t, usd(100), f.vault.Balance(ctx, alice, usdc))

	_, err = f.vault.Deposit(ctx, alice, usdc, usd(1))
	assert.ErrorIs(t, err, ErrAssetNotSupported)

	market, err := f.vault.Revalue(ctx)
	require.NoError(t, err)
	assert.Equal(t, usd(100), market, "unpriced holdings count at book value")

	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(100))
	require.NoError(t, err)
	assert.Equal(t, 0, f.vault.Balance(ctx, alice, usdc).Sign())
	assert.Equal(t, 0, f.vault.TotalDeposited(ctx).Sign())
	requireConsistent(t, f.vault)
}

func TestWithdraw_ReentrantSecondWithdrawalFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(100))
	require.NoError(t, err)

	var (
		inner   error
		seen    *big.Int
		entered int
	)
	f.mem.OnTransferOut(func(ctx context.Context, id, party common.Address, amount *big.Int) error {
		entered++
		if entered > 1 {
			return nil
		}
		seen = f.vault.Balance(ctx, party, id)
		_, inner = f.vault.Withdraw(ctx, party, id, amount)
		return nil
	})

	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(100))
	require.NoError(t, err)
	assert.Equal(t, 1, entered)
	assert.Equal(t, 0, seen.Sign(), "reentrant call must observe the debited balance")
	assert.ErrorIs(t, inner, ErrInsufficientBalance)

	assert.Equal(t, 0, f.vault.Balance(ctx, alice, usdc).Sign())
	assert.Equal(t, usd(1_000_000), f.mem.WalletBalance(alice, usdc))
	assert.Len(t, f.rec.recorded(), 2)
	requireConsistent(t, f.vault)
}

func TestWithdraw_TransferFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(100))
	require.NoError(t, err)
	before := f.vault.Snapshot(ctx)

	f.mem.OnTransferOut(func(context.Context, common.Address, common.Address, *big.Int) error {
		return errors.New("recipient reverted")
	})
	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(40))
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, before, f.vault.Snapshot(ctx))
	assert.Len(t, f.rec.recorded(), 1, "rolled back withdrawal is not recorded")
	assert.Equal(t, usd(100), f.mem.Custody(usdc))
}

func TestWithdraw_PendingTransferKeepsDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(100))
	require.NoError(t, err)

	f.mem.FailWith(fmt.Errorf("payout 0x01: %w", transfer.ErrPending))
	ev, err := f.vault.Withdraw(ctx, alice, usdc, usd(40))
	require.NoError(t, err)
	assert.True(t, ev.Pending)
	assert.Equal(t, usd(60), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, usd(60), f.vault.TotalDeposited(ctx))
	_, withdrawals := f.vault.Counters(ctx, alice)
	assert.Equal(t, uint64(1), withdrawals)
	assert.Len(t, f.rec.recorded(), 2, "pending withdrawal is recorded")
	requireConsistent(t, f.vault)

	// the same amount cannot be withdrawn twice while the payout is in flight
	f.mem.FailWith(nil)
	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(100))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestDeposit_PendingTransferIsCredited(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))

	f.mem.FailWith(fmt.Errorf("pull 0x02: %w", transfer.ErrPending))
	ev, err := f.vault.Deposit(ctx, alice, usdc, usd(25))
	require.NoError(t, err)
	assert.True(t, ev.Pending)
	assert.Equal(t, usd(25), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, usd(25), f.vault.TotalDeposited(ctx))
	assert.Len(t, f.rec.recorded(), 1)
	requireConsistent(t, f.vault)
}

func TestWithdraw_FailureKeepsCompletedReentrantOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	_, err := f.vault.Deposit(ctx, alice, usdc, usd(100))
	require.NoError(t, err)
	_, err = f.vault.Deposit(ctx, alice, wbtc, big.NewInt(10_000_000))
	require.NoError(t, err)

	var inner error
	f.mem.OnTransferOut(func(ctx context.Context, id, party common.Address, amount *big.Int) error {
		if id != usdc {
			return nil
		}
		_, inner = f.vault.Withdraw(ctx, party, wbtc, big.NewInt(10_000_000))
		return errors.New("recipient reverted")
	})

	_, err = f.vault.Withdraw(ctx, alice, usdc, usd(100))
	assert.ErrorIs(t, err, ErrTransferFailed)
	require.NoError(t, inner)

	// the wbtc payout really happened, the usdc one did not
	assert.Equal(t, usd(100), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, 0, f.vault.Balance(ctx, alice, wbtc).Sign())
	assert.Equal(t, usd(100), f.vault.TotalDeposited(ctx))
	assert.Equal(t, usd(100), f.mem.Custody(usdc))
	assert.Equal(t, 0, f.mem.Custody(wbtc).Sign())

	events := f.rec.recorded()
	require.Len(t, events, 3)
	assert.Equal(t, EventWithdrawal, events[2].Kind)
	assert.Equal(t, wbtc, events[2].Asset)
	requireConsistent(t, f.vault)
}

func TestVault_BalancesBoundedByHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(10_000))

	type step struct {
		deposit bool
		amount  int64
	}
	steps := []step{
		{true, 500}, {false, 200}, {true, 9_000}, {false, 400}, {true, 2_000},
		{false, 10_000}, {false, 8_900}, {true, 1}, {false, 1},
	}

	net := new(big.Int)
	for i, s := range steps {
		var err error
		if s.deposit {
			_, err = f.vault.Deposit(ctx, alice, usdc, usd(s.amount))
			if err == nil {
				net.Add(net, usd(s.amount))
			}
		} else {
			_, err = f.vault.Withdraw(ctx, alice, usdc, usd(s.amount))
			if err == nil {
				net.Sub(net, usd(s.amount))
			}
		}
		bal := f.vault.Balance(ctx, alice, usdc)
		require.GreaterOrEqual(t, bal.Sign(), 0, "step %d", i)
		require.Equal(t, net.String(), bal.String(), "step %d", i)
		requireConsistent(t, f.vault)
	}
}

func TestVault_ConcurrentOperationsStayConsistent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000_000))

	var wg sync.WaitGroup
	for _, u := range []common.Address{alice, bob} {
		wg.Add(1)
		go func(user common.Address) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, err := f.vault.Deposit(ctx, user, usdc, usd(10))
				assert.NoError(t, err)
				_, err = f.vault.Withdraw(ctx, user, usdc, usd(3))
				assert.NoError(t, err)
				_ = f.vault.TotalDeposited(ctx)
			}
		}(u)
	}
	wg.Wait()

	assert.Equal(t, usd(350), f.vault.Balance(ctx, alice, usdc))
	assert.Equal(t, usd(350), f.vault.Balance(ctx, bob, usdc))
	assert.Equal(t, usd(700), f.vault.TotalDeposited(ctx))
	requireConsistent(t, f.vault)
}

func TestVault_RecorderFailureDoesNotAffectLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, usd(1_000_000))
	f.rec.err = errors.New("db down")

	_, err := f.vault.Deposit(ctx, alice, usdc, usd(5))
	require.NoError(t, err)
	assert.Equal(t, usd(5), f.vault.Balance(ctx, alice, usdc))
}
