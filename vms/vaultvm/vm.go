// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vaultvm hosts a governance vault on a block-driven chain: every
// block advances the chain clock, accrues market interest and executes its
// transactions one by one, each atomically.
package vaultvm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/rpc/v2"
	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/govvault/utils/json"
	"github.com/luxfi/govvault/utils/timer/mockable"
	"github.com/luxfi/govvault/vms/vaultvm/api"
	"github.com/luxfi/govvault/vms/vaultvm/compound"
	"github.com/luxfi/govvault/vms/vaultvm/config"
	"github.com/luxfi/govvault/vms/vaultvm/events"
	"github.com/luxfi/govvault/vms/vaultvm/metrics"
	"github.com/luxfi/govvault/vms/vaultvm/vault"
)

var (
	ErrNotInitialized     = errors.New("vm not initialized")
	ErrInvalidBlockHeight = errors.New("block height does not follow the last block")
	ErrInvalidBlockTime   = errors.New("block time precedes the last block")
	ErrMarketRejected     = errors.New("market rejected the operation")
	ErrUnknownTx          = errors.New("unknown transaction type")

	chainPrefix       = []byte("chain")
	underlyingPrefix  = []byte("underlying")
	marketPrefix      = []byte("market")
	comptrollerPrefix = []byte("comptroller")

	initializedKey = []byte("initialized")
	heightKey      = []byte("height")
	timestampKey   = []byte("timestamp")
)

// TxResult is the outcome of one transaction. A failed transaction leaves no
// state behind.
type TxResult struct {
	ID  ids.ID
	Op  string
	Err error
}

type BlockResult struct {
	Height  uint64
	Results []TxResult
	// Events are the notifications of the block's committed transactions, in
	// order.
	Events []any
}

type VM struct {
	lock sync.Mutex

	log      log.Logger
	registry metric.Registry

	config  config.Config
	genesis *Genesis

	db          *versiondb.Database
	state       database.Database
	clock       mockable.Clock
	token       *compound.Token
	market      *compound.Market
	comptroller *compound.Comptroller
	vault       *vault.Vault
	metrics     metrics.Metrics
	bus         *events.Bus
	recorder    events.Recorder
	service     *api.Service
}

func New(logger log.Logger, registry metric.Registry) *VM {
	return &VM{
		log:      logger,
		registry: registry,
		bus:      events.NewBus(),
	}
}

// Initialize opens the chain state in [db]. Genesis allocations are applied
// only the first time.
func (vm *VM) Initialize(
	_ context.Context,
	db database.Database,
	genesisBytes []byte,
	configBytes []byte,
) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	var err error
	vm.config, err = config.GetConfig(configBytes)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	vm.genesis, err = ParseGenesis(genesisBytes)
	if err != nil {
		return fmt.Errorf("failed to parse genesis bytes: %w", err)
	}
	vm.log.Info("initializing vault vm",
		log.Stringer("vault", vm.genesis.Vault),
		log.Stringer("market", vm.genesis.Market),
		log.Uint64("period", vm.config.Period),
		log.Uint64("staleBlockLag", vm.config.StaleBlockLag),
		log.Int("twarSnapshotsMaxLength", vm.config.TWARSnapshotsMaxLength),
	)

	vm.db = versiondb.New(db)
	vm.state = prefixdb.New(chainPrefix, vm.db)
	vm.token = compound.NewToken(vm.genesis.Symbol, vm.genesis.Decimals, prefixdb.New(underlyingPrefix, vm.db))
	vm.market, err = compound.NewMarket(compound.MarketConfig{
		Address:             vm.genesis.Market,
		Underlying:          vm.token,
		Model:               compound.DefaultInterestRateModel(),
		InitialExchangeRate: vm.genesis.InitialExchangeRate.Value(),
	}, prefixdb.New(marketPrefix, vm.db))
	if err != nil {
		return err
	}
	vm.comptroller = compound.NewComptroller(prefixdb.New(comptrollerPrefix, vm.db))
	vm.comptroller.SupportMarket(vm.market)

	if err := vm.applyGenesis(); err != nil {
		vm.db.Abort()
		return fmt.Errorf("failed to initialize genesis state: %w", err)
	}
	if err := vm.loadClock(); err != nil {
		return err
	}

	vm.metrics, err = metrics.New(vm.registry)
	if err != nil {
		return err
	}
	vm.bus.
		Subscribe(vault.VotesChanged{}, vm.recorder.Emit).
		Subscribe(vault.MultiplierChanged{}, vm.recorder.Emit).
		Subscribe(vault.MultiplierChanged{}, events.Typed(vm.logMultiplier))

	vm.vault, err = vault.New(vault.Params{
		Address:    vm.genesis.Vault,
		Config:     vm.config,
		DB:         vm.db,
		Underlying: vm.token,
		Market:     vm.market,
		Registrar:  vm.comptroller,
		Chain:      &vm.clock,
		Emitter:    vm.bus,
		Metrics:    vm.metrics,
		Log:        vm.log,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize vault: %w", err)
	}
	vm.service, err = api.NewService(vm.vault, &vm.clock, vm.config.QueryCacheSize, vm.registry, vm.log)
	if err != nil {
		return err
	}

	vm.log.Info("initialized vault vm",
		log.Uint64("height", vm.clock.Height()),
	)
	return nil
}

func (vm *VM) applyGenesis() error {
	has, err := vm.state.Has(initializedKey)
	if err != nil || has {
		return err
	}
	for _, allocation := range vm.genesis.Allocations {
		if err := vm.token.Mint(allocation.Address, allocation.Amount.Value()); err != nil {
			return err
		}
	}
	if err := vm.state.Put(initializedKey, []byte{1}); err != nil {
		return err
	}
	return vm.db.Commit()
}

func (vm *VM) loadClock() error {
	height, err := getUInt64(vm.state, heightKey)
	if err != nil {
		return err
	}
	timestamp, err := getUInt64(vm.state, timestampKey)
	if err != nil {
		return err
	}
	vm.clock.SetBlock(height, time.Unix(int64(timestamp), 0))
	return nil
}

func getUInt64(db database.KeyValueReader, key []byte) (uint64, error) {
	value, err := database.GetUInt64(db, key)
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	return value, err
}

func (vm *VM) logMultiplier(_ context.Context, event vault.MultiplierChanged) error {
	vm.log.Info("voting power multiplier changed",
		log.Uint64("height", vm.clock.Height()),
		log.String("old", event.Old.Dec()),
		log.String("new", event.New.Dec()),
	)
	return nil
}

// Subscribe registers [listener] for vault notifications of the same type as
// [event].
func (vm *VM) Subscribe(event any, listener events.Listener) {
	vm.bus.Subscribe(event, listener)
}

// ProcessBlock executes [txs] in a block at [height] and [timestamp]. A
// transaction that fails is reported in the result and does not stop the
// block.
func (vm *VM) ProcessBlock(ctx context.Context, height uint64, timestamp time.Time, txs [][]byte) (BlockResult, error) {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.vault == nil {
		return BlockResult{}, ErrNotInitialized
	}
	if lastHeight := vm.clock.Height(); height != lastHeight+1 {
		return BlockResult{}, fmt.Errorf("%w: got %d after %d", ErrInvalidBlockHeight, height, lastHeight)
	}
	if lastTime := vm.clock.Time(); timestamp.Before(lastTime) {
		return BlockResult{}, fmt.Errorf("%w: got %s after %s", ErrInvalidBlockTime, timestamp, lastTime)
	}

	if err := vm.beginBlock(height, timestamp); err != nil {
		vm.db.Abort()
		vm.loadClockOrLog()
		return BlockResult{}, err
	}

	result := BlockResult{
		Height:  height,
		Results: make([]TxResult, 0, len(txs)),
	}
	pruned := false
	for _, bytes := range txs {
		txResult := vm.executeTx(ctx, bytes)
		if txResult.Err != nil {
			vm.log.Debug("transaction failed",
				log.Uint64("height", height),
				log.Stringer("txID", txResult.ID),
				log.String("op", txResult.Op),
				log.Err(txResult.Err),
			)
		} else if txResult.Op == pruneOp {
			pruned = true
		}
		result.Results = append(result.Results, txResult)
	}
	if pruned {
		vm.service.InvalidateHistory()
	}
	result.Events = vm.recorder.Drain()

	vm.log.Debug("processed block",
		log.Uint64("height", height),
		log.Int("numTxs", len(txs)),
		log.Int("numEvents", len(result.Events)),
	)
	return result, nil
}

// beginBlock moves the clock to the block and accrues market interest up to
// it.
func (vm *VM) beginBlock(height uint64, timestamp time.Time) error {
	vm.clock.SetBlock(height, timestamp)
	if err := vm.market.AccrueInterest(height); err != nil {
		return fmt.Errorf("failed to accrue interest: %w", err)
	}
	if err := database.PutUInt64(vm.state, heightKey, height); err != nil {
		return err
	}
	if err := database.PutUInt64(vm.state, timestampKey, vm.clock.Unix()); err != nil {
		return err
	}
	return vm.db.Commit()
}

func (vm *VM) loadClockOrLog() {
	if err := vm.loadClock(); err != nil {
		vm.log.Error("failed to restore chain clock",
			log.Err(err),
		)
	}
}

func (vm *VM) executeTx(ctx context.Context, bytes []byte) TxResult {
	tx, txID, err := ParseTx(bytes)
	if err != nil {
		return TxResult{Err: err}
	}
	result := TxResult{
		ID: txID,
		Op: tx.Op(),
	}
	if err := vm.execute(ctx, tx); err != nil {
		vm.db.Abort()
		result.Err = err
		return result
	}
	if err := vm.db.Commit(); err != nil {
		vm.db.Abort()
		result.Err = err
	}
	return result
}

func (vm *VM) execute(ctx context.Context, tx Tx) error {
	switch tx := tx.(type) {
	case *ApproveTx:
		return vm.token.Approve(tx.Owner, vm.genesis.Vault, amount(tx.Amount))
	case *DepositTx:
		return vm.vault.Deposit(ctx, tx.Caller, tx.FundedAccount, amount(tx.Amount), tx.FirstDelegation)
	case *WithdrawTx:
		return vm.vault.Withdraw(ctx, tx.Account, amount(tx.ReceiptAmount))
	case *PruneTx:
		pruned, err := vm.vault.Prune(tx.Delegate)
		if err != nil {
			return err
		}
		vm.log.Debug("pruned checkpoints",
			log.Stringer("delegate", tx.Delegate),
			log.Uint64("pruned", pruned),
		)
		return nil
	case *BorrowTx:
		code, err := vm.market.Borrow(tx.Borrower, amount(tx.Amount))
		return marketResult(tx, code, err)
	case *RepayTx:
		if err := vm.token.Approve(tx.Borrower, vm.genesis.Market, amount(tx.Amount)); err != nil {
			return err
		}
		code, err := vm.market.RepayBorrow(tx.Borrower, amount(tx.Amount))
		return marketResult(tx, code, err)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownTx, tx)
	}
}

func marketResult(tx Tx, code uint64, err error) error {
	if err != nil {
		return err
	}
	if code != compound.NoError {
		return fmt.Errorf("%w: %s returned code %d", ErrMarketRejected, tx.Op(), code)
	}
	return nil
}

// Vault returns the hosted vault for direct reads.
func (vm *VM) Vault() *vault.Vault {
	return vm.vault
}

// Underlying returns the underlying token.
func (vm *VM) Underlying() *compound.Token {
	return vm.token
}

// Market returns the receipt token market.
func (vm *VM) Market() *compound.Market {
	return vm.market
}

// Height returns the height of the last processed block.
func (vm *VM) Height() uint64 {
	return vm.clock.Height()
}

func (vm *VM) CreateHandlers(context.Context) (map[string]http.Handler, error) {
	if vm.service == nil {
		return nil, ErrNotInitialized
	}
	server := rpc.NewServer()
	codec := json.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	server.RegisterInterceptFunc(vm.metrics.InterceptRequest)
	server.RegisterAfterFunc(vm.metrics.AfterRequest)
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(vm.service, api.Name)
}

func (vm *VM) Shutdown(context.Context) error {
	vm.lock.Lock()
	defer vm.lock.Unlock()

	if vm.db == nil {
		return nil
	}
	return vm.db.Close()
}
