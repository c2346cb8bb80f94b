// Package pairstate is the single authoritative record of a pair's
// reserves, configured collaborators, and accrued fees. It is a data
// record only; every mutation is driven by internal/pair's operations.
package pairstate

import (
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
)

// Config holds the gas-like budgets and timeout a real deployment would
// reserve for each outbound token operation. It is immutable after
// construction.
type Config struct {
	GasForTokenOps     uint64
	GasForReplyDeposit uint64
	ReplyTimeout       time.Duration
	GasForFullTx       uint64
}

// State is the pair's authoritative record.
type State struct {
	mu sync.RWMutex

	Token0   actor.ID
	Token1   actor.ID
	FeeTo    actor.ID
	Treasury actor.ID
	Admin    actor.ID
	Factory  actor.ID

	Reserve0 *uint256.Int
	Reserve1 *uint256.Int
	KLast    *uint256.Int

	AccruedTreasuryFee0 *uint256.Int
	AccruedTreasuryFee1 *uint256.Int

	Migrated bool

	Lock   *lock.Lock
	Config Config
}

// New constructs a State at program birth: reserves zero, k_last zero,
// lock Free, migrated false.
func New(token0, token1, feeTo, treasury, admin, factory actor.ID, cfg Config) *State {
	return &State{
		Token0:              token0,
		Token1:              token1,
		FeeTo:               feeTo,
		Treasury:            treasury,
		Admin:               admin,
		Factory:             factory,
		Reserve0:            uint256.NewInt(0),
		Reserve1:            uint256.NewInt(0),
		KLast:               uint256.NewInt(0),
		AccruedTreasuryFee0: uint256.NewInt(0),
		AccruedTreasuryFee1: uint256.NewInt(0),
		Lock:                lock.New(),
		Config:              cfg,
	}
}

// Reserves returns a defensive copy of the current reserves.
func (s *State) Reserves() (*uint256.Int, *uint256.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(uint256.Int).Set(s.Reserve0), new(uint256.Int).Set(s.Reserve1)
}

// SetReserves overwrites both reserves atomically.
func (s *State) SetReserves(r0, r1 *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reserve0 = new(uint256.Int).Set(r0)
	s.Reserve1 = new(uint256.Int).Set(r1)
}

// KLastValue returns a defensive copy of k_last.
func (s *State) KLastValue() *uint256.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(uint256.Int).Set(s.KLast)
}

// SetKLast overwrites k_last.
func (s *State) SetKLast(k *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KLast = new(uint256.Int).Set(k)
}

// TreasuryFees returns a defensive copy of the two accrued treasury fee
// counters.
func (s *State) TreasuryFees() (*uint256.Int, *uint256.Int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(uint256.Int).Set(s.AccruedTreasuryFee0), new(uint256.Int).Set(s.AccruedTreasuryFee1)
}

// AddTreasuryFees accumulates fee0/fee1 onto the accrued counters.
func (s *State) AddTreasuryFees(fee0, fee1 *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccruedTreasuryFee0 = new(uint256.Int).Add(s.AccruedTreasuryFee0, fee0)
	s.AccruedTreasuryFee1 = new(uint256.Int).Add(s.AccruedTreasuryFee1, fee1)
}

// ResetTreasuryFees zeroes both accrued treasury fee counters atomically,
// used by a successful treasury payout.
func (s *State) ResetTreasuryFees() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccruedTreasuryFee0 = uint256.NewInt(0)
	s.AccruedTreasuryFee1 = uint256.NewInt(0)
}

// IsMigrated reports whether the pair has completed its one-shot migration.
func (s *State) IsMigrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Migrated
}

// SetMigrated marks the pair migrated; this is a one-way transition.
func (s *State) SetMigrated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Migrated = true
}

// SetFeeTo updates the fee recipient; callers must enforce that only the
// factory may invoke this.
func (s *State) SetFeeTo(feeTo actor.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FeeTo = feeTo
}

// SetTreasury updates the treasury identity; callers must enforce that only
// the admin may invoke this.
func (s *State) SetTreasury(treasury actor.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Treasury = treasury
}

// FeeToID returns the current fee recipient.
func (s *State) FeeToID() actor.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FeeTo
}

// TreasuryID returns the current treasury identity.
func (s *State) TreasuryID() actor.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Treasury
}
