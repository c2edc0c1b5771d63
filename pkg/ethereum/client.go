package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/config"
	"github.com/chainsafe/vault-ledger/pkg/ethereum/contracts"
)

const nativeTransferGas = 21000

// Client moves assets between user wallets and the custody account on an
// EVM chain, and reads token metadata.
type Client struct {
	config     *config.EthereumConfig
	backend    Backend
	closer     func()
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
	erc20      *abi.ABI

	// serializes nonce allocation
	sendMu sync.Mutex
}

// NewClient dials the configured RPC endpoint. Without a custody key the
// client can still read decimals and prices but refuses transfers.
func NewClient(cfg *config.EthereumConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	c, err := NewClientWithBackend(cfg, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	c.closer = client.Close

	logger.Info("Connected to Ethereum",
		zap.Int64("chain_id", cfg.ChainID),
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("custody_address", c.address.Hex()))
	return c, nil
}

// NewClientWithBackend creates a client over an existing backend.
func NewClientWithBackend(cfg *config.EthereumConfig, backend Backend, logger *zap.Logger) (*Client, error) {
	parsed, err := contracts.ERC20MetaData.GetAbi()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	c := &Client{
		config:  cfg,
		backend: backend,
		logger:  logger,
		erc20:   parsed,
	}
	if cfg.CustodyPrivateKey != "" {
		key, err := parsePrivateKey(cfg.CustodyPrivateKey)
		if err != nil {
			return nil, err
		}
		c.privateKey = key
		c.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c, nil
}

// Close closes the underlying RPC connection
func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

// CustodyAddress returns the account that holds deposited assets.
func (c *Client) CustodyAddress() common.Address {
	return c.address
}

// Backend returns the chain backend, for building price feeds on the same connection.
func (c *Client) Backend() Backend {
	return c.backend
}

// GetTransactor returns a transaction signer
func (c *Client) GetTransactor(ctx context.Context) (*bind.TransactOpts, error) {
	if c.privateKey == nil {
		return nil, ErrNoCustodyKey
	}
	chainID := big.NewInt(c.config.ChainID)

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	auth.GasLimit = c.config.GasLimit

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}
	auth.GasPrice = gasPrice
	return auth, nil
}

// gasPrice returns the suggested gas price, capped at the configured maximum.
func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	if c.config.MaxGasPrice == "" {
		return gasPrice, nil
	}
	maxGasPrice, ok := new(big.Int).SetString(c.config.MaxGasPrice, 10)
	if !ok {
		return nil, fmt.Errorf("invalid max gas price %q", c.config.MaxGasPrice)
	}
	if gasPrice.Cmp(maxGasPrice) > 0 {
		c.logger.Warn("Suggested gas price exceeds maximum",
			zap.String("suggested", gasPrice.String()),
			zap.String("max", maxGasPrice.String()))
		return maxGasPrice, nil
	}
	return gasPrice, nil
}

// Decimals reads the token's decimals().
func (c *Client) Decimals(ctx context.Context, id asset.ID) (uint8, error) {
	if asset.IsNative(id) {
		return asset.DefaultNativeDecimals, nil
	}
	token, err := contracts.NewERC20(id, c.backend)
	if err != nil {
		return 0, err
	}
	d, err := token.Decimals(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, fmt.Errorf("failed to read decimals of %s: %w", id.Hex(), err)
	}
	return d, nil
}

// TransferIn pulls amount of a token from the wallet of from into custody.
// The depositor must have approved the custody account beforehand. Once the
// pull is broadcast, cancelling ctx no longer stops the wait for its receipt;
// only the receipt timeout does, with ErrTxPending.
func (c *Client) TransferIn(ctx context.Context, id, from asset.ID, amount *big.Int) error {
	if asset.IsNative(id) {
		return ErrNativePull
	}
	if c.privateKey == nil {
		return ErrNoCustodyKey
	}
	if err := c.simulate(ctx, id, "transferFrom", from, c.address, amount); err != nil {
		return err
	}

	token, err := contracts.NewERC20(id, c.backend)
	if err != nil {
		return err
	}
	tx, err := c.send(ctx, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return token.TransferFrom(opts, from, c.address, amount)
	})
	if err != nil {
		return fmt.Errorf("failed to submit transferFrom: %w", err)
	}

	c.logger.Info("Deposit pull submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("token", id.Hex()),
		zap.String("from", from.Hex()),
		zap.String("amount", amount.String()))
	return c.waitMined(context.WithoutCancel(ctx), tx.Hash())
}

// TransferOut sends amount of id from custody to the wallet of to. It waits
// for the receipt the same way TransferIn does.
func (c *Client) TransferOut(ctx context.Context, id, to asset.ID, amount *big.Int) error {
	if c.privateKey == nil {
		return ErrNoCustodyKey
	}

	var (
		tx  *types.Transaction
		err error
	)
	if asset.IsNative(id) {
		tx, err = c.sendNative(ctx, to, amount)
	} else {
		if err := c.simulate(ctx, id, "transfer", to, amount); err != nil {
			return err
		}
		token, bindErr := contracts.NewERC20(id, c.backend)
		if bindErr != nil {
			return bindErr
		}
		tx, err = c.send(ctx, func(opts *bind.TransactOpts) (*types.Transaction, error) {
			return token.Transfer(opts, to, amount)
		})
	}
	if err != nil {
		return fmt.Errorf("failed to submit payout: %w", err)
	}

	c.logger.Info("Withdrawal payout submitted",
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("asset", asset.Label(id)),
		zap.String("to", to.Hex()),
		zap.String("amount", amount.String()))
	return c.waitMined(context.WithoutCancel(ctx), tx.Hash())
}

// simulate dry-runs a token call from the custody account. Tokens that do
// not return a value pass on success; tokens returning false are rejected.
func (c *Client) simulate(ctx context.Context, token common.Address, method string, args ...interface{}) error {
	data, err := c.erc20.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.address, To: &token, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("%s on %s reverted: %w", method, token.Hex(), err)
	}
	if len(out) == 0 {
		return nil
	}
	vals, err := c.erc20.Unpack(method, out)
	if err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	if ok, _ := vals[0].(bool); !ok {
		return fmt.Errorf("%w: %s on %s returned false", ErrTokenRejected, method, token.Hex())
	}
	return nil
}

func (c *Client) send(ctx context.Context, submit func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	opts, err := c.GetTransactor(ctx)
	if err != nil {
		return nil, err
	}
	return submit(opts)
}

func (c *Client) sendNative(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      nativeTransferGas,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(c.config.ChainID)), c.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// waitMined polls for the receipt and fails unless the transaction succeeded.
// A missing receipt at the timeout is ErrTxPending, never a failure: the
// transaction can still be mined.
func (c *Client) waitMined(ctx context.Context, txHash common.Hash) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ReceiptTimeout)
	defer cancel()

	interval := c.config.PollingInterval
	if interval <= 0 {
		interval = time.Second
	}
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %s", ErrTxFailed, txHash.Hex())
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			c.logger.Debug("Receipt lookup failed, retrying",
				zap.String("tx_hash", txHash.Hex()),
				zap.Error(err))
		}

		select {
		case <-ctx.Done():
			c.logger.Warn("No receipt before timeout",
				zap.String("tx_hash", txHash.Hex()),
				zap.Duration("receipt_timeout", c.config.ReceiptTimeout))
			return fmt.Errorf("%w: %s: %w", ErrTxPending, txHash.Hex(), ctx.Err())
		case <-time.After(interval):
		}
	}
}
