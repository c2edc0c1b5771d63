package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// AggregatorV3MetaData contains the read surface of a Chainlink price feed.
var AggregatorV3MetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"description","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"}
]`,
}

// RoundData is the answer of latestRoundData.
type RoundData struct {
	RoundId         *big.Int
	Answer          *big.Int
	StartedAt       *big.Int
	UpdatedAt       *big.Int
	AnsweredInRound *big.Int
}

// AggregatorV3 is a read-only binding to a Chainlink aggregator.
type AggregatorV3 struct {
	contract *bind.BoundContract
}

// NewAggregatorV3 creates a binding to the feed deployed at address.
func NewAggregatorV3(address common.Address, caller bind.ContractCaller) (*AggregatorV3, error) {
	parsed, err := AggregatorV3MetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return &AggregatorV3{contract: bind.NewBoundContract(address, *parsed, caller, nil, nil)}, nil
}

// Decimals is a free data retrieval call binding the contract method 0x313ce567.
func (a *AggregatorV3) Decimals(opts *bind.CallOpts) (uint8, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "decimals"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// LatestRoundData is a free data retrieval call binding the contract method 0xfeaf968c.
func (a *AggregatorV3) LatestRoundData(opts *bind.CallOpts) (RoundData, error) {
	var out []interface{}
	if err := a.contract.Call(opts, &out, "latestRoundData"); err != nil {
		return RoundData{}, err
	}
	return RoundData{
		RoundId:         *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		Answer:          *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		StartedAt:       *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		UpdatedAt:       *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		AnsweredInRound: *abi.ConvertType(out[4], new(*big.Int)).(**big.Int),
	}, nil
}
