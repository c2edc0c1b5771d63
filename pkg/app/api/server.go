// Package api implements app.Runner for the vault server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/vault-ledger/pkg/app/http"
	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/auth"
	"github.com/chainsafe/vault-ledger/pkg/config"
	"github.com/chainsafe/vault-ledger/pkg/ethereum"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
	"github.com/chainsafe/vault-ledger/pkg/pgutil"
	reconcilerpkg "github.com/chainsafe/vault-ledger/pkg/reconciler"
	"github.com/chainsafe/vault-ledger/pkg/registry"
	"github.com/chainsafe/vault-ledger/pkg/transfer"
	"github.com/chainsafe/vault-ledger/pkg/vault"
	vaultservice "github.com/chainsafe/vault-ledger/pkg/vault/service"
	"github.com/chainsafe/vault-ledger/pkg/vaultstore"
)

// bootstrapCaller supports the configured assets at startup. The zero
// address cannot sign a login, so it never reaches the API.
var bootstrapCaller = asset.Native

// Server holds cfg to init the vault server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new vault server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// components are the collaborators built from configuration.
type components struct {
	db        *bun.DB
	store     *vaultstore.Store
	chain     *ethereum.Client
	transport vault.Transport
	feed      oracle.Feed
}

func (c *components) close() {
	if c.chain != nil {
		c.chain.Close()
	}
	if c.db != nil {
		_ = c.db.Close()
	}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("vault server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vault server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("transport", cfg.Vault.Transport),
		zap.String("oracle", cfg.Oracle.Source),
		zap.Bool("persistence", cfg.Database.Enabled()))

	comp, err := s.openComponents(logger)
	if err != nil {
		return err
	}
	defer comp.close()

	admins := auth.NewStaticAdmins(cfg.Vault.AdminAddresses()...)
	v, err := s.openVault(comp, admins, logger)
	if err != nil {
		return err
	}
	if err := s.restore(ctx, v, comp, logger); err != nil {
		return err
	}
	if err := s.supportConfiguredAssets(ctx, v, admins, comp, logger); err != nil {
		return err
	}

	var loader reconcilerpkg.SnapshotLoader
	var events vaultservice.EventStore
	if comp.store != nil {
		loader, events = comp.store, comp.store
	}
	rec := reconcilerpkg.New(v, loader, logger)
	s.runInitialReconcile(ctx, rec, logger)
	stopReconcile := s.startPeriodicReconcile(rec, logger)
	defer stopReconcile()

	sessions := auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svc := vaultservice.NewLog(
		vaultservice.NewService(v, comp.transport, events, sessions, cfg.Auth.LoginWindow, logger),
		logger,
	)
	router := s.setupRouter(svc, sessions, rec, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// stop background work before the deferred closes
	stopReconcile()
	return err
}

func (s *Server) openComponents(logger *zap.Logger) (*components, error) {
	cfg := s.cfg
	comp := &components{}

	if cfg.Database.Enabled() {
		db, err := pgutil.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		comp.db = db
		comp.store = vaultstore.NewStore(db)
		logger.Info("Connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("database", cfg.Database.Database))
	}

	if cfg.Vault.Transport == "ethereum" || cfg.Oracle.Source == "chainlink" {
		client, err := ethereum.NewClient(&cfg.Ethereum, logger)
		if err != nil {
			comp.close()
			return nil, fmt.Errorf("create ethereum client: %w", err)
		}
		comp.chain = client
	}

	switch cfg.Vault.Transport {
	case "ethereum":
		comp.transport = comp.chain
	default:
		logger.Warn("Using in-memory transport; custody balances are not backed by a chain")
		comp.transport = transfer.NewMemory()
	}

	switch cfg.Oracle.Source {
	case "chainlink":
		comp.feed = ethereum.NewPriceFeed(comp.chain.Backend())
	default:
		feed, err := staticFeed(cfg.Oracle.Prices)
		if err != nil {
			comp.close()
			return nil, err
		}
		comp.feed = feed
	}
	return comp, nil
}

func staticFeed(prices []config.PriceConfig) (*oracle.StaticFeed, error) {
	feed := oracle.NewStaticFeed()
	for _, p := range prices {
		value, err := asset.ParseUnits(p.USD, asset.PriceDecimals)
		if err != nil {
			return nil, fmt.Errorf("oracle price for %s: %w", p.Feed, err)
		}
		feed.Set(common.HexToAddress(p.Feed), value)
	}
	return feed, nil
}

func (s *Server) openVault(comp *components, admins *auth.StaticAdmins, logger *zap.Logger) (*vault.Vault, error) {
	cfg := s.cfg
	maxWithdrawal, maxCapacity, err := cfg.Vault.Limits()
	if err != nil {
		return nil, err
	}

	var opts []vault.Option
	if comp.chain != nil {
		opts = append(opts, vault.WithTokenMetadata(comp.chain))
	}
	if comp.store != nil {
		opts = append(opts, vault.WithRecorder(comp.store))
	}

	v, err := vault.New(vault.Config{
		MaxWithdrawal:  maxWithdrawal,
		MaxCapacityUSD: maxCapacity,
		NativeFeed:     common.HexToAddress(cfg.Vault.NativeFeed),
		NativeDecimals: cfg.Vault.NativeDecimals,
		PriceMaxAge:    cfg.Vault.PriceMaxAge,
	}, registry.New(admins), comp.feed, comp.transport, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}
	return v, nil
}

// restore loads the persisted ledger into v.
func (s *Server) restore(ctx context.Context, v *vault.Vault, comp *components, logger *zap.Logger) error {
	if comp.store == nil {
		return nil
	}
	snap, err := comp.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load persisted ledger: %w", err)
	}
	if err := v.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore persisted ledger: %w", err)
	}
	logger.Info("Restored ledger",
		zap.Int("accounts", len(snap.Accounts)),
		zap.Int("assets", len(snap.Assets)),
		zap.String("total_usd", snap.Total.String()))
	return nil
}

// supportConfiguredAssets registers the assets listed in the config under a
// temporary admin grant, then persists the registry.
func (s *Server) supportConfiguredAssets(
	ctx context.Context,
	v *vault.Vault,
	admins *auth.StaticAdmins,
	comp *components,
	logger *zap.Logger,
) error {
	if len(s.cfg.Assets) == 0 {
		return nil
	}
	admins.Grant(bootstrapCaller)
	defer admins.Revoke(bootstrapCaller)

	for _, a := range s.cfg.Assets {
		id := common.HexToAddress(a.Address)
		var feed *asset.ID
		if a.Feed != "" {
			f := common.HexToAddress(a.Feed)
			feed = &f
		}
		if err := v.SupportAsset(ctx, bootstrapCaller, id, feed, a.Decimals); err != nil {
			return fmt.Errorf("support configured asset %s: %w", a.Address, err)
		}
	}

	if comp.store != nil {
		if err := comp.store.SaveAssets(ctx, v.AssetEntries(ctx)); err != nil {
			logger.Warn("Failed to persist configured assets", zap.Error(err))
		}
	}
	logger.Info("Configured assets supported", zap.Int("count", len(s.cfg.Assets)))
	return nil
}

func (s *Server) runInitialReconcile(ctx context.Context, rec *reconcilerpkg.Reconciler, logger *zap.Logger) {
	rc := s.cfg.Reconciliation
	if !rc.Enabled || rc.InitialTimeout <= 0 {
		return
	}

	logger.Info("Running initial ledger reconciliation", zap.Duration("timeout", rc.InitialTimeout))

	startupCtx, cancel := context.WithTimeout(ctx, rc.InitialTimeout)
	defer cancel()

	res, err := rec.ReconcileAll(startupCtx)
	if err != nil {
		logger.Warn("Initial reconciliation failed (will retry periodically)", zap.Error(err))
		return
	}
	logger.Info("Initial ledger reconciliation completed", zap.Bool("healthy", res.Healthy()))
}

func (s *Server) startPeriodicReconcile(rec *reconcilerpkg.Reconciler, logger *zap.Logger) func() {
	rc := s.cfg.Reconciliation
	if !rc.Enabled || rc.Interval <= 0 {
		return func() {}
	}
	logger.Info("Starting periodic reconciliation", zap.Duration("interval", rc.Interval))
	rec.StartPeriodicReconciliation(rc.Interval)
	return rec.Stop
}

func (s *Server) setupRouter(
	svc vaultservice.Service,
	sessions *auth.Sessions,
	rec *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Method(http.MethodGet, "/v1/audit", reconcilerpkg.NewHandler(rec, logger))

	vaultservice.RegisterRoutes(r, svc, sessions, logger)
	return r
}
