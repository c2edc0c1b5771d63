package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts ledger operations by kind and outcome
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_operations_total",
			Help: "Total number of vault ledger operations",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration tracks time spent inside the ledger critical section
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_operation_duration_seconds",
			Help:    "Vault operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// DepositedUSD tracks the USD value of committed movements, in whole dollars
	DepositedUSD = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vault_movement_usd",
			Help:    "USD value of committed deposits and withdrawals",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		},
		[]string{"kind"},
	)

	// TotalDepositedUSD tracks the aggregate USD value held by the vault
	TotalDepositedUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_total_deposited_usd",
			Help: "Aggregate USD value of all deposits",
		},
	)

	// CapacityUtilization tracks the aggregate as a fraction of the capacity cap
	CapacityUtilization = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_capacity_utilization_ratio",
			Help: "Aggregate deposits divided by the USD capacity cap",
		},
	)

	// SupportedAssets tracks the number of supported secondary assets
	SupportedAssets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_supported_assets",
			Help: "Number of supported secondary assets",
		},
	)

	// TransferFailures counts custody transfers that failed and were rolled back
	TransferFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_transfer_failures_total",
			Help: "Total number of failed custody transfers",
		},
		[]string{"direction"},
	)

	// TransfersPending counts transfers kept on the books without a
	// confirmed outcome; each one needs reconciling against custody
	TransfersPending = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_transfers_pending_total",
			Help: "Total number of custody transfers committed with an unconfirmed outcome",
		},
		[]string{"direction"},
	)

	// ErrorsTotal counts errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// LedgerDriftUSD tracks the difference between the recorded aggregate and
	// the sum recomputed from individual balances
	LedgerDriftUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_ledger_drift_usd",
			Help: "Recorded aggregate minus recomputed aggregate, in dollars",
		},
	)

	// MarketValueUSD tracks holdings revalued at current prices, in whole dollars
	MarketValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_market_value_usd",
			Help: "Vault holdings revalued at current oracle prices",
		},
	)

	// AuditRuns counts reconciliation passes by outcome
	AuditRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vault_audit_runs_total",
			Help: "Total number of ledger audit passes",
		},
		[]string{"status"},
	)

	// PersistedDriftUSD tracks the in-memory aggregate minus the persisted one
	PersistedDriftUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_persisted_drift_usd",
			Help: "In-memory aggregate minus the aggregate stored in the database, in dollars",
		},
	)

	// LastAuditTimestamp records when the last audit pass finished
	LastAuditTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vault_last_audit_timestamp_seconds",
			Help: "Unix time of the last completed ledger audit",
		},
	)
)
