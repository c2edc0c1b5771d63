// Package contracts holds the minimal contract bindings the custody transport
// and price feed call: the ERC-20 transfer surface and the Chainlink
// AggregatorV3 read surface.
package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ERC20MetaData contains the subset of the ERC-20 ABI used by the vault.
var ERC20MetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"owner","type":"address"},{"internalType":"address","name":"spender","type":"address"}],"name":"allowance","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"internalType":"address","name":"from","type":"address"},{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"transferFrom","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`,
}

// ERC20 is a binding to an ERC-20 token contract.
type ERC20 struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewERC20 creates a binding to the token deployed at address.
func NewERC20(address common.Address, backend bind.ContractBackend) (*ERC20, error) {
	parsed, err := ERC20MetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &ERC20{
		address:  address,
		contract: bind.NewBoundContract(address, *parsed, backend, backend, backend),
	}, nil
}

// Address returns the token address.
func (t *ERC20) Address() common.Address {
	return t.address
}

// Decimals is a free data retrieval call binding the contract method 0x313ce567.
func (t *ERC20) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// BalanceOf is a free data retrieval call binding the contract method 0x70a08231.
func (t *ERC20) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "balanceOf", account); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Allowance is a free data retrieval call binding the contract method 0xdd62ed3e.
func (t *ERC20) Allowance(opts *bind.CallOpts, owner, spender common.Address) (*big.Int, error) {
	var out []interface{}
	if err := t.contract.Call(opts, &out, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Transfer is a paid mutator transaction binding the contract method 0xa9059cbb.
func (t *ERC20) Transfer(opts *bind.TransactOpts, to common.Address, value *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "transfer", to, value)
}

// TransferFrom is a paid mutator transaction binding the contract method 0x23b872dd.
func (t *ERC20) TransferFrom(opts *bind.TransactOpts, from, to common.Address, value *big.Int) (*types.Transaction, error) {
	return t.contract.Transact(opts, "transferFrom", from, to, value)
}
