// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

const membershipPrefix byte = 'm'

var memberValue = []byte{1}

// Comptroller lists markets and tracks which markets each account has
// entered.
type Comptroller struct {
	lock     sync.RWMutex
	listed   map[ids.ShortID]*Market
	rejected set.Set[ids.ShortID]
	db       database.Database
}

func NewComptroller(db database.Database) *Comptroller {
	return &Comptroller{
		listed:   make(map[ids.ShortID]*Market),
		rejected: set.NewSet[ids.ShortID](0),
		db:       db,
	}
}

func (c *Comptroller) SupportMarket(market *Market) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.listed[market.Address()] = market
}

// Market returns the listed market at [address].
func (c *Comptroller) Market(address ids.ShortID) (*Market, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	market, ok := c.listed[address]
	return market, ok
}

// Reject makes every later attempt by [account] to enter a market fail with
// ComptrollerRejection.
func (c *Comptroller) Reject(account ids.ShortID) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.rejected.Add(account)
}

// EnterMarkets adds [markets] to [account]'s membership and returns one
// result code per market.
func (c *Comptroller) EnterMarkets(account ids.ShortID, markets []ids.ShortID) ([]uint64, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	rejected := c.rejected.Contains(account)
	results := make([]uint64, len(markets))
	for i, market := range markets {
		switch _, listed := c.listed[market]; {
		case !listed:
			results[i] = MarketNotListed
		case rejected:
			results[i] = ComptrollerRejection
		default:
			if err := c.db.Put(pairKey(membershipPrefix, account, market), memberValue); err != nil {
				return nil, err
			}
			results[i] = NoError
		}
	}
	return results, nil
}

func (c *Comptroller) CheckMembership(account, market ids.ShortID) (bool, error) {
	return c.db.Has(pairKey(membershipPrefix, account, market))
}
