// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault wraps deposits of an underlying asset into a lending market's
// receipt token and credits the depositor's delegate with voting power. The
// power of a deposit is its underlying value discounted by the TWAR
// multiplier at the time of the deposit.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/govvault/vms/vaultvm/checkpoint"
	"github.com/luxfi/govvault/vms/vaultvm/config"
	"github.com/luxfi/govvault/vms/vaultvm/events"
	"github.com/luxfi/govvault/vms/vaultvm/metrics"
	"github.com/luxfi/govvault/vms/vaultvm/twar"

	safemath "github.com/luxfi/govvault/utils/math"
)

//go:generate mockgen -package=vaultmock -destination=vaultmock/underlying.go -mock_names=Underlying=Underlying . Underlying
//go:generate mockgen -package=vaultmock -destination=vaultmock/market.go -mock_names=Market=Market . Market
//go:generate mockgen -package=vaultmock -destination=vaultmock/registrar.go -mock_names=Registrar=Registrar . Registrar

// Exchange rates carry 10 more decimals than the receipt token.
const exchangeRateDecimals = 10

var (
	ErrZeroDelegation      = errors.New("delegate is the zero address")
	ErrMintFailed          = errors.New("market rejected the mint")
	ErrRedeemFailed        = errors.New("market rejected the redeem")
	ErrAmountOverflow      = errors.New("receipt balance exceeds 96 bits")
	ErrTransferFailed      = errors.New("underlying transfer failed")
	ErrEnterMarketFailed   = errors.New("failed to enter market")
	ErrInsufficientReceipt = errors.New("insufficient receipt balance")
	ErrNotDeposited        = errors.New("account has no deposit")
	ErrMissingDependency   = errors.New("missing dependency")

	depositPrefix = []byte("deposit")
	ledgerPrefix  = []byte("ledger")
	twarPrefix    = []byte("twar")
)

// Underlying is the asset accepted by the vault.
type Underlying interface {
	BalanceOf(account ids.ShortID) (*uint256.Int, error)
	Approve(owner, spender ids.ShortID, amount *uint256.Int) error
	Transfer(from, to ids.ShortID, amount *uint256.Int) (bool, error)
	TransferFrom(spender, from, to ids.ShortID, amount *uint256.Int) (bool, error)
}

// Market is the lending market whose receipt token the vault holds. Result
// codes are zero on success.
type Market interface {
	Address() ids.ShortID
	Decimals() uint8
	BalanceOf(account ids.ShortID) (*uint256.Int, error)
	// ExchangeRateCurrent is scaled by 10^(10 + Decimals()).
	ExchangeRateCurrent() (*uint256.Int, error)
	BorrowRatePerBlock() (*uint256.Int, error)
	Mint(minter ids.ShortID, amount *uint256.Int) (uint64, error)
	Redeem(redeemer ids.ShortID, receiptAmount *uint256.Int) (uint64, error)
}

type Registrar interface {
	EnterMarkets(account ids.ShortID, markets []ids.ShortID) ([]uint64, error)
}

// Chain reports the block being executed.
type Chain interface {
	Height() uint64
	Unix() uint64
}

type Emitter interface {
	Emit(ctx context.Context, event any) error
}

// Database is written through by every vault operation and committed only
// when the operation succeeds.
type Database interface {
	database.Database
	Commit() error
	Abort()
}

type Params struct {
	// Address the vault holds funds under.
	Address    ids.ShortID
	Config     config.Config
	DB         Database
	Underlying Underlying
	Market     Market
	Registrar  Registrar
	Chain      Chain
	Emitter    Emitter
	Metrics    metrics.Metrics
	Log        log.Logger
}

type Vault struct {
	lock sync.RWMutex

	address    ids.ShortID
	config     config.Config
	db         Database
	deposits   database.Database
	ledger     *checkpoint.Ledger
	twar       *twar.Engine
	underlying Underlying
	market     Market
	chain      Chain
	emitter    Emitter
	metrics    metrics.Metrics
	log        log.Logger
}

// New builds the vault and enters the receipt token's market.
func New(p Params) (*Vault, error) {
	switch {
	case p.DB == nil:
		return nil, fmt.Errorf("%w: database", ErrMissingDependency)
	case p.Underlying == nil:
		return nil, fmt.Errorf("%w: underlying", ErrMissingDependency)
	case p.Market == nil:
		return nil, fmt.Errorf("%w: market", ErrMissingDependency)
	case p.Registrar == nil:
		return nil, fmt.Errorf("%w: registrar", ErrMissingDependency)
	case p.Chain == nil:
		return nil, fmt.Errorf("%w: chain", ErrMissingDependency)
	case p.Metrics == nil:
		return nil, fmt.Errorf("%w: metrics", ErrMissingDependency)
	}
	if err := p.Config.Verify(); err != nil {
		return nil, err
	}

	logger := p.Log
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	var emitter Emitter = events.NewBus()
	if p.Emitter != nil {
		emitter = p.Emitter
	}
	engine, err := twar.New(p.Config.TWAR(), prefixdb.New(twarPrefix, p.DB), p.Market, logger)
	if err != nil {
		return nil, err
	}

	v := &Vault{
		address:    p.Address,
		config:     p.Config,
		db:         p.DB,
		deposits:   prefixdb.New(depositPrefix, p.DB),
		ledger:     checkpoint.New(prefixdb.New(ledgerPrefix, p.DB)),
		twar:       engine,
		underlying: p.Underlying,
		market:     p.Market,
		chain:      p.Chain,
		emitter:    emitter,
		metrics:    p.Metrics,
		log:        logger,
	}
	if err := v.enterMarket(p.Registrar); err != nil {
		p.DB.Abort()
		return nil, err
	}
	if err := p.DB.Commit(); err != nil {
		p.DB.Abort()
		return nil, err
	}
	return v, nil
}

func (v *Vault) enterMarket(registrar Registrar) error {
	market := v.market.Address()
	results, err := registrar.EnterMarkets(v.address, []ids.ShortID{market})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEnterMarketFailed, err)
	}
	if len(results) != 1 {
		return fmt.Errorf("%w: expected 1 result but got %d", ErrEnterMarketFailed, len(results))
	}
	if results[0] != 0 {
		return fmt.Errorf("%w: %s returned code %d", ErrEnterMarketFailed, market, results[0])
	}
	return nil
}

func (v *Vault) Address() ids.ShortID {
	return v.address
}

func (v *Vault) Config() config.Config {
	return v.config
}

// Deposits returns the deposit record of [account]. Accounts that never
// deposited have a zero delegate and balance.
func (v *Vault) Deposits(account ids.ShortID) (DepositRecord, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return getRecord(v.deposits, account)
}

// QueryVotePower returns the voting power of [account] as of [blockNumber].
func (v *Vault) QueryVotePower(account ids.ShortID, blockNumber uint64) (*uint256.Int, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.ledger.Find(account, blockNumber, v.chain.Height())
}

// CurrentVotes returns the latest voting power of [delegate].
func (v *Vault) CurrentVotes(delegate ids.ShortID) (*uint256.Int, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.ledger.LoadTop(delegate)
}

// Checkpoints returns the retained voting power history of [delegate].
func (v *Vault) Checkpoints(delegate ids.ShortID) ([]checkpoint.Checkpoint, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.ledger.History(delegate)
}

func (v *Vault) Multiplier() (*uint256.Int, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.twar.Multiplier()
}

// TWAR returns a copy of the snapshot buffer.
func (v *Vault) TWAR() (twar.View, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.twar.View()
}

// CalculateVotingPower converts [receiptAmount] to underlying at the current
// exchange rate and applies the current multiplier.
func (v *Vault) CalculateVotingPower(receiptAmount *uint256.Int) (*uint256.Int, error) {
	v.lock.RLock()
	defer v.lock.RUnlock()

	return v.calculateVotingPower(receiptAmount)
}

func (v *Vault) calculateVotingPower(receiptAmount *uint256.Int) (*uint256.Int, error) {
	rate, err := v.market.ExchangeRateCurrent()
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange rate: %w", err)
	}
	scale, err := safemath.Pow10(exchangeRateDecimals + uint64(v.market.Decimals()))
	if err != nil {
		return nil, err
	}
	underlying, err := safemath.MulDiv(receiptAmount, rate, scale)
	if err != nil {
		return nil, err
	}
	multiplier, err := v.twar.Multiplier()
	if err != nil {
		return nil, err
	}
	return safemath.ScaledMul(underlying, multiplier)
}

// Prune drops the checkpoints of [delegate] that fell more than the
// configured stale block lag behind its latest checkpoint.
func (v *Vault) Prune(delegate ids.ShortID) (uint64, error) {
	v.lock.Lock()
	defer v.lock.Unlock()

	pruned, err := v.ledger.Prune(delegate, v.config.StaleBlockLag)
	if err != nil {
		v.db.Abort()
		return 0, err
	}
	if err := v.db.Commit(); err != nil {
		v.db.Abort()
		return 0, err
	}
	if pruned > 0 {
		v.log.Debug("pruned checkpoints",
			log.Stringer("delegate", delegate),
			log.Uint64("count", pruned),
		)
	}
	return pruned, nil
}
