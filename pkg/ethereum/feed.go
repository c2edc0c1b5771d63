package ethereum

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsafe/vault-ledger/pkg/asset"
	"github.com/chainsafe/vault-ledger/pkg/ethereum/contracts"
	"github.com/chainsafe/vault-ledger/pkg/oracle"
)

// PriceFeed reads Chainlink AggregatorV3 feeds and rescales their answers to
// asset.PriceDecimals.
type PriceFeed struct {
	caller bind.ContractCaller

	mu       sync.RWMutex
	decimals map[common.Address]uint8
}

// NewPriceFeed creates a feed reader over caller.
func NewPriceFeed(caller bind.ContractCaller) *PriceFeed {
	return &PriceFeed{
		caller:   caller,
		decimals: make(map[common.Address]uint8),
	}
}

// LatestPrice implements oracle.Feed.
func (f *PriceFeed) LatestPrice(ctx context.Context, feed asset.ID) (oracle.Price, error) {
	agg, err := contracts.NewAggregatorV3(feed, f.caller)
	if err != nil {
		return oracle.Price{}, err
	}
	opts := &bind.CallOpts{Context: ctx}

	d, err := f.feedDecimals(opts, feed, agg)
	if err != nil {
		return oracle.Price{}, err
	}
	round, err := agg.LatestRoundData(opts)
	if err != nil {
		return oracle.Price{}, fmt.Errorf("failed to read latest round of %s: %w", feed.Hex(), err)
	}
	return oracle.Price{
		Value:     rescale(round.Answer, d, asset.PriceDecimals),
		UpdatedAt: time.Unix(round.UpdatedAt.Int64(), 0).UTC(),
	}, nil
}

func (f *PriceFeed) feedDecimals(opts *bind.CallOpts, feed common.Address, agg *contracts.AggregatorV3) (uint8, error) {
	f.mu.RLock()
	d, ok := f.decimals[feed]
	f.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := agg.Decimals(opts)
	if err != nil {
		return 0, fmt.Errorf("failed to read decimals of feed %s: %w", feed.Hex(), err)
	}
	f.mu.Lock()
	f.decimals[feed] = d
	f.mu.Unlock()
	return d, nil
}
