// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api provides the JSON-RPC read API of the vault VM.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/holiman/uint256"
	"github.com/luxfi/cache"
	"github.com/luxfi/cache/lru"
	"github.com/luxfi/cache/metercacher"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/govvault/utils/json"
	"github.com/luxfi/govvault/vms/vaultvm/twar"
	"github.com/luxfi/govvault/vms/vaultvm/vault"
)

// Name is the name the service is registered under.
const Name = "vault"

var ErrInvalidAddress = errors.New("invalid address")

// Vault is the read surface the service needs.
type Vault interface {
	Deposits(account ids.ShortID) (vault.DepositRecord, error)
	QueryVotePower(account ids.ShortID, blockNumber uint64) (*uint256.Int, error)
	CurrentVotes(delegate ids.ShortID) (*uint256.Int, error)
	Multiplier() (*uint256.Int, error)
	TWAR() (twar.View, error)
}

// Chain reports the height of the last processed block.
type Chain interface {
	Height() uint64
}

type votePowerKey struct {
	account     ids.ShortID
	blockNumber uint64
}

// Service serves the vault state over JSON-RPC.
type Service struct {
	vault Vault
	chain Chain
	log   log.Logger

	// Answers for blocks strictly below the chain height. They only change
	// when history is pruned.
	votePowerCache cache.Cacher[votePowerKey, *uint256.Int]
}

func NewService(
	v Vault,
	chain Chain,
	cacheSize int,
	registry metric.Registry,
	logger log.Logger,
) (*Service, error) {
	votePowerCache, err := metercacher.New(
		"vault_api_vote_power_cache",
		registry,
		lru.NewCache[votePowerKey, *uint256.Int](cacheSize),
	)
	if err != nil {
		return nil, err
	}
	return &Service{
		vault:          v,
		chain:          chain,
		log:            logger,
		votePowerCache: votePowerCache,
	}, nil
}

// InvalidateHistory drops every cached historical answer.
func (s *Service) InvalidateHistory() {
	s.votePowerCache.Flush()
}

type PingArgs struct{}

type PingReply struct {
	Success bool `json:"success"`
}

func (*Service) Ping(_ *http.Request, _ *PingArgs, reply *PingReply) error {
	reply.Success = true
	return nil
}

type GetDepositArgs struct {
	Account string `json:"account"`
}

type GetDepositReply struct {
	Delegate       string       `json:"delegate"`
	ReceiptBalance json.Uint256 `json:"receiptBalance"`
}

// GetDeposit returns the deposit record of an account. Accounts that never
// deposited have an empty delegate and a zero balance.
func (s *Service) GetDeposit(_ *http.Request, args *GetDepositArgs, reply *GetDepositReply) error {
	s.log.Debug("API called",
		log.String("service", Name),
		log.String("method", "getDeposit"),
	)

	account, err := parseAddress(args.Account)
	if err != nil {
		return err
	}
	record, err := s.vault.Deposits(account)
	if err != nil {
		return err
	}
	if record.Delegate != ids.ShortEmpty {
		reply.Delegate = record.Delegate.String()
	}
	reply.ReceiptBalance = json.NewUint256(record.ReceiptBalance)
	return nil
}

type QueryVotePowerArgs struct {
	Account     string      `json:"account"`
	BlockNumber json.Uint64 `json:"blockNumber"`
}

type VotesReply struct {
	Votes json.Uint256 `json:"votes"`
}

// QueryVotePower returns the voting power an account had as of a past block.
func (s *Service) QueryVotePower(_ *http.Request, args *QueryVotePowerArgs, reply *VotesReply) error {
	s.log.Debug("API called",
		log.String("service", Name),
		log.String("method", "queryVotePower"),
		log.Uint64("blockNumber", uint64(args.BlockNumber)),
	)

	account, err := parseAddress(args.Account)
	if err != nil {
		return err
	}
	key := votePowerKey{
		account:     account,
		blockNumber: uint64(args.BlockNumber),
	}
	if votes, ok := s.votePowerCache.Get(key); ok {
		reply.Votes = json.NewUint256(votes)
		return nil
	}

	votes, err := s.vault.QueryVotePower(account, key.blockNumber)
	if err != nil {
		return err
	}
	if key.blockNumber < s.chain.Height() {
		s.votePowerCache.Put(key, votes)
	}
	reply.Votes = json.NewUint256(votes)
	return nil
}

type CurrentVotesArgs struct {
	Delegate string `json:"delegate"`
}

func (s *Service) CurrentVotes(_ *http.Request, args *CurrentVotesArgs, reply *VotesReply) error {
	s.log.Debug("API called",
		log.String("service", Name),
		log.String("method", "currentVotes"),
	)

	delegate, err := parseAddress(args.Delegate)
	if err != nil {
		return err
	}
	votes, err := s.vault.CurrentVotes(delegate)
	if err != nil {
		return err
	}
	reply.Votes = json.NewUint256(votes)
	return nil
}

type GetMultiplierReply struct {
	Multiplier json.Uint256 `json:"multiplier"`
}

func (s *Service) GetMultiplier(_ *http.Request, _ *struct{}, reply *GetMultiplierReply) error {
	multiplier, err := s.vault.Multiplier()
	if err != nil {
		return err
	}
	reply.Multiplier = json.NewUint256(multiplier)
	return nil
}

type Snapshot struct {
	CumulativeRate json.Uint256 `json:"cumulativeRate"`
	Timestamp      json.Uint64  `json:"timestamp"`
}

type GetSnapshotsReply struct {
	Snapshots     []Snapshot   `json:"snapshots"`
	WriteIndex    int          `json:"writeIndex"`
	LastUpdatedAt json.Uint64  `json:"lastUpdatedAt"`
	Multiplier    json.Uint256 `json:"multiplier"`
}

// GetSnapshots returns the TWAR buffer in slot order.
func (s *Service) GetSnapshots(_ *http.Request, _ *struct{}, reply *GetSnapshotsReply) error {
	view, err := s.vault.TWAR()
	if err != nil {
		return err
	}
	reply.Snapshots = make([]Snapshot, len(view.Snapshots))
	for i, snapshot := range view.Snapshots {
		reply.Snapshots[i] = Snapshot{
			CumulativeRate: json.NewUint256(snapshot.CumulativeRate),
			Timestamp:      json.Uint64(snapshot.Timestamp),
		}
	}
	reply.WriteIndex = view.WriteIndex
	reply.LastUpdatedAt = json.Uint64(view.LastUpdatedAt)
	reply.Multiplier = json.NewUint256(view.Multiplier)
	return nil
}

func parseAddress(addr string) (ids.ShortID, error) {
	id, err := ids.ShortFromString(addr)
	if err != nil {
		return ids.ShortEmpty, fmt.Errorf("%w %q: %w", ErrInvalidAddress, addr, err)
	}
	return id, nil
}
