package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/keys"
)

// Environment variables that override secrets from the config file.
const (
	EnvDatabasePassword   = "VAULT_DATABASE_PASSWORD"
	EnvCustodyPrivateKey  = "VAULT_CUSTODY_PRIVATE_KEY"
	EnvEthereumRPCURL     = "VAULT_ETHEREUM_RPC_URL"
	EnvDatabaseConnection = "VAULT_DATABASE_URL"
	EnvJWTSecret          = "VAULT_JWT_SECRET"
	EnvMasterKey          = "VAULT_MASTER_KEY"
)

// Config represents the vault server configuration
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Auth           AuthConfig           `yaml:"auth"`
	Database       DatabaseConfig       `yaml:"database"`
	Ethereum       EthereumConfig       `yaml:"ethereum"`
	Vault          VaultConfig          `yaml:"vault"`
	Oracle         OracleConfig         `yaml:"oracle"`
	Assets         []AssetConfig        `yaml:"assets" validate:"dive"`
	Reconciliation ReconciliationConfig `yaml:"reconciliation"`
	Monitoring     MonitoringConfig     `yaml:"monitoring"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"60s"`
}

// AuthConfig contains wallet login and session settings
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret" validate:"required,min=32"`
	TokenTTL    time.Duration `yaml:"token_ttl" default:"1h"`
	LoginWindow time.Duration `yaml:"login_window" default:"5m"`
}

// DatabaseConfig contains database connection settings. An empty host runs
// the vault without persistence.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"vault"`
	SSLMode  string `yaml:"ssl_mode" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
	Timeout  int    `yaml:"timeout" default:"10"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// EthereumConfig contains settings for the on-chain custody transport and
// price feeds
type EthereumConfig struct {
	RPCURL            string        `yaml:"rpc_url"`
	ChainID           int64         `yaml:"chain_id" default:"1"`
	CustodyPrivateKey string        `yaml:"custody_private_key"`
	SealedCustodyKey  string        `yaml:"sealed_custody_key"`
	GasLimit          uint64        `yaml:"gas_limit" default:"300000"`
	MaxGasPrice       string        `yaml:"max_gas_price" validate:"omitempty,numeric"`
	PollingInterval   time.Duration `yaml:"polling_interval" default:"3s"`
	ReceiptTimeout    time.Duration `yaml:"receipt_timeout" default:"2m"`
}

// VaultConfig contains the immutable ledger limits. Amounts are decimal
// strings: MaxWithdrawal in whole native units, MaxCapacityUSD in dollars.
type VaultConfig struct {
	Transport      string        `yaml:"transport" default:"memory" validate:"oneof=memory ethereum"`
	MaxWithdrawal  string        `yaml:"max_withdrawal" validate:"required"`
	MaxCapacityUSD string        `yaml:"max_capacity_usd" validate:"required"`
	NativeFeed     string        `yaml:"native_feed" validate:"required,eth_addr"`
	NativeDecimals uint8         `yaml:"native_decimals" default:"18" validate:"min=1,max=36"`
	PriceMaxAge    time.Duration `yaml:"price_max_age"`
	Admins         []string      `yaml:"admins" validate:"dive,eth_addr"`
}

// Limits parses the configured limits into base units.
func (c *VaultConfig) Limits() (maxWithdrawal, maxCapacityUSD *big.Int, err error) {
	maxWithdrawal, err = asset.ParseUnits(c.MaxWithdrawal, c.NativeDecimals)
	if err != nil {
		return nil, nil, fmt.Errorf("vault.max_withdrawal: %w", err)
	}
	maxCapacityUSD, err = asset.ParseUnits(c.MaxCapacityUSD, asset.CanonicalDecimals)
	if err != nil {
		return nil, nil, fmt.Errorf("vault.max_capacity_usd: %w", err)
	}
	return maxWithdrawal, maxCapacityUSD, nil
}

// AdminAddresses returns the configured admin set.
func (c *VaultConfig) AdminAddresses() []common.Address {
	out := make([]common.Address, 0, len(c.Admins))
	for _, a := range c.Admins {
		out = append(out, common.HexToAddress(a))
	}
	return out
}

// OracleConfig selects where prices come from. The static source answers
// from Prices and exists for local runs.
type OracleConfig struct {
	Source string        `yaml:"source" default:"static" validate:"oneof=static chainlink"`
	Prices []PriceConfig `yaml:"prices" validate:"dive"`
}

// PriceConfig is a fixed answer for a feed, in dollars.
type PriceConfig struct {
	Feed string `yaml:"feed" validate:"required,eth_addr"`
	USD  string `yaml:"usd" validate:"required"`
}

// AssetConfig is a secondary asset supported at startup.
type AssetConfig struct {
	Address  string `yaml:"address" validate:"required,eth_addr"`
	Feed     string `yaml:"feed" validate:"omitempty,eth_addr"`
	Decimals *uint8 `yaml:"decimals" validate:"omitempty,max=36"`
}

// ReconciliationConfig contains settings for the periodic ledger audit
type ReconciliationConfig struct {
	Enabled        bool          `yaml:"enabled" default:"true"`
	InitialTimeout time.Duration `yaml:"initial_timeout" default:"30s"`
	Interval       time.Duration `yaml:"interval" default:"5m"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and environment
// overrides, and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	applyEnv(&cfg)
	if err := unsealCustodyKey(&cfg.Ethereum, os.Getenv(EnvMasterKey)); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabaseConnection); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(EnvDatabasePassword); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv(EnvCustodyPrivateKey); v != "" {
		cfg.Ethereum.CustodyPrivateKey = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvEthereumRPCURL); v != "" {
		cfg.Ethereum.RPCURL = v
	}
}

// unsealCustodyKey replaces a sealed custody key with its plaintext form.
// A plaintext key, when present, wins.
func unsealCustodyKey(cfg *EthereumConfig, masterKey string) error {
	if cfg.CustodyPrivateKey != "" || cfg.SealedCustodyKey == "" {
		return nil
	}
	if masterKey == "" {
		return fmt.Errorf("%s is required to open ethereum.sealed_custody_key", EnvMasterKey)
	}
	master, err := keys.MasterKeyFromBase64(masterKey)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvMasterKey, err)
	}
	key, err := keys.OpenHex(cfg.SealedCustodyKey, master)
	if err != nil {
		return fmt.Errorf("open custody key: %w", err)
	}
	cfg.CustodyPrivateKey = key
	return nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if _, _, err := cfg.Vault.Limits(); err != nil {
		return err
	}
	for _, p := range cfg.Oracle.Prices {
		if _, err := asset.ParseUnits(p.USD, asset.PriceDecimals); err != nil {
			return fmt.Errorf("oracle price for %s: %w", p.Feed, err)
		}
	}

	needsChain := cfg.Vault.Transport == "ethereum" || cfg.Oracle.Source == "chainlink"
	if needsChain && cfg.Ethereum.RPCURL == "" {
		return errors.New("ethereum.rpc_url is required for the ethereum transport or chainlink feeds")
	}
	if cfg.Vault.Transport == "ethereum" && cfg.Ethereum.CustodyPrivateKey == "" {
		return errors.New("ethereum.custody_private_key or sealed_custody_key is required for the ethereum transport")
	}
	return nil
}
