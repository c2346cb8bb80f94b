// Package ledger implements the pair's LP fungible-balance bookkeeping: a
// balance map, total supply, and mint/burn. It carries no allowances and no
// transfer method of its own — LP shares only ever move via mint and burn,
// issued by the pair.
package ledger

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
)

// Ledger is a minimal fungible-balance map owned by the pair.
type Ledger struct {
	mu          sync.RWMutex
	balances    map[actor.ID]*uint256.Int
	totalSupply *uint256.Int
}

// New returns an empty ledger with zero total supply.
func New() *Ledger {
	return &Ledger{
		balances:    make(map[actor.ID]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// Mint increments balances[to] and total supply by value. The zero identity
// is a valid mint target, used to permanently lock away MINIMUM_LIQUIDITY on
// a pool's first deposit.
func (l *Ledger) Mint(to actor.ID, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	newSupply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, value)
	if overflow {
		return pairerr.New(pairerr.KindOverflow, "total supply overflow")
	}

	bal := l.balanceLocked(to)
	newBal, overflow := new(uint256.Int).AddOverflow(bal, value)
	if overflow {
		return pairerr.New(pairerr.KindOverflow, "balance overflow")
	}

	l.balances[to] = newBal
	l.totalSupply = newSupply
	return nil
}

// Burn decrements balances[from] and total supply by value, failing if the
// balance is insufficient.
func (l *Ledger) Burn(from actor.ID, value *uint256.Int) error {
	if value == nil || value.IsZero() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.balanceLocked(from)
	if bal.Lt(value) {
		return pairerr.New(pairerr.KindInsufficientLiquidity, "burn exceeds balance")
	}
	if l.totalSupply.Lt(value) {
		return pairerr.New(pairerr.KindInsufficientLiquidity, "burn exceeds total supply")
	}

	l.balances[from] = new(uint256.Int).Sub(bal, value)
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, value)
	return nil
}

// TotalSupply returns the current total LP share supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.totalSupply)
}

// BalanceOf returns the LP share balance held by id.
func (l *Ledger) BalanceOf(id actor.ID) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(uint256.Int).Set(l.balanceLocked(id))
}

func (l *Ledger) balanceLocked(id actor.ID) *uint256.Int {
	if bal, ok := l.balances[id]; ok {
		return bal
	}
	return uint256.NewInt(0)
}

// Snapshot returns a defensive copy of every non-zero balance, for
// persistence.
func (l *Ledger) Snapshot() map[actor.ID]*uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[actor.ID]*uint256.Int, len(l.balances))
	for id, bal := range l.balances {
		if bal.IsZero() {
			continue
		}
		out[id] = new(uint256.Int).Set(bal)
	}
	return out
}

// Restore replaces the ledger's state with balances and totalSupply, used
// when recovering from persisted storage. It does not validate that
// totalSupply equals the sum of balances; callers that load from storage are
// trusted to have persisted a consistent pair.
func (l *Ledger) Restore(balances map[actor.ID]*uint256.Int, totalSupply *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[actor.ID]*uint256.Int, len(balances))
	for id, bal := range balances {
		l.balances[id] = new(uint256.Int).Set(bal)
	}
	if totalSupply == nil {
		totalSupply = uint256.NewInt(0)
	}
	l.totalSupply = new(uint256.Int).Set(totalSupply)
}
