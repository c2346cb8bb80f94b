package pair

import (
	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ammmath"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
)

// GetReserves returns a defensive copy of the current reserves.
func (p *Pair) GetReserves() (reserve0, reserve1 *uint256.Int) {
	return p.State.Reserves()
}

// GetTokens returns the pair's two token identities in their canonical
// order.
func (p *Pair) GetTokens() (token0, token1 actor.ID) {
	return p.State.Token0, p.State.Token1
}

// GetTreasuryInfo returns the configured treasury identity and its accrued,
// unpaid fee on both sides.
func (p *Pair) GetTreasuryInfo() (treasury actor.ID, fee0, fee1 *uint256.Int) {
	fee0, fee1 = p.State.TreasuryFees()
	return p.State.TreasuryID(), fee0, fee1
}

// Migrated reports whether the pair has completed its one-shot migration.
func (p *Pair) Migrated() bool {
	return p.State.IsMigrated()
}

// LockState returns the lock's current coarse state, for status dashboards.
func (p *Pair) LockState() lock.State {
	return p.State.Lock.State()
}

// GetAmountOut is a pure quote of what SwapExactInput would currently pay
// out for amountIn along dir, including the treasury surcharge if one is
// configured. It does not mutate any state and does not guarantee the quote
// still holds by the time a real swap executes.
func (p *Pair) GetAmountOut(amountIn *uint256.Int, dir pairevents.Direction) (*uint256.Int, error) {
	_, _, reserveIn, reserveOut := p.resolveDirection(dir)
	_, amountOut, _, err := ammmath.GetAmountOutWithTreasury(amountIn, reserveIn, reserveOut, p.treasuryFeeBPS())
	if err != nil {
		return nil, err
	}
	return amountOut, nil
}

// GetAmountIn is a pure quote of what SwapExactOutput would currently
// require as total input (pool share plus treasury surcharge) to pay out
// amountOut along dir.
func (p *Pair) GetAmountIn(amountOut *uint256.Int, dir pairevents.Direction) (*uint256.Int, error) {
	_, _, reserveIn, reserveOut := p.resolveDirection(dir)
	_, amountInTotal, _, err := ammmath.GetAmountInWithTreasury(amountOut, reserveIn, reserveOut, p.treasuryFeeBPS())
	if err != nil {
		return nil, err
	}
	return amountInTotal, nil
}
