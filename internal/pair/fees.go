package pair

import (
	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ammmath"
)

var five = uint256.NewInt(5)

// mintFee implements the 1/6-of-growth protocol fee via a square-root-of-k
// tracking variable. It returns whether fee collection is currently
// enabled (fee_to != zero identity) and, when it minted new LP shares to
// fee_to, leaves the ledger updated in place.
//
// Called at the start of add-liquidity and remove-liquidity, before the
// caller's own mint/burn.
func (p *Pair) mintFee() (feeOn bool, err error) {
	feeTo := p.State.FeeToID()
	kLast := p.State.KLastValue()

	if feeTo.IsZero() {
		if !kLast.IsZero() {
			p.State.SetKLast(uint256.NewInt(0))
		}
		return false, nil
	}

	if kLast.IsZero() {
		return true, nil
	}

	r0, r1 := p.State.Reserves()
	kNow := new(uint256.Int).Mul(r0, r1)
	sqrtKNow := ammmath.FloorSqrt(kNow)
	sqrtKLast := ammmath.FloorSqrt(kLast)

	if sqrtKNow.Cmp(sqrtKLast) > 0 {
		totalSupply := p.Ledger.TotalSupply()
		growth := new(uint256.Int).Sub(sqrtKNow, sqrtKLast)

		numerator := new(uint256.Int).Mul(totalSupply, growth)
		denomLeft := new(uint256.Int).Mul(five, sqrtKNow)
		denominator := new(uint256.Int).Add(denomLeft, sqrtKLast)

		if !denominator.IsZero() {
			liquidity := new(uint256.Int).Div(numerator, denominator)
			if !liquidity.IsZero() {
				if err := p.Ledger.Mint(feeTo, liquidity); err != nil {
					return true, err
				}
			}
		}
	}

	return true, nil
}

// CalculateProtocolFee is the pure read-only counterpart of mintFee: the LP
// shares that would be minted to fee_to if mintFee ran right now, without
// mutating any state.
func (p *Pair) CalculateProtocolFee() *uint256.Int {
	feeTo := p.State.FeeToID()
	kLast := p.State.KLastValue()

	if feeTo.IsZero() || kLast.IsZero() {
		return uint256.NewInt(0)
	}

	r0, r1 := p.State.Reserves()
	kNow := new(uint256.Int).Mul(r0, r1)
	sqrtKNow := ammmath.FloorSqrt(kNow)
	sqrtKLast := ammmath.FloorSqrt(kLast)

	if sqrtKNow.Cmp(sqrtKLast) <= 0 {
		return uint256.NewInt(0)
	}

	totalSupply := p.Ledger.TotalSupply()
	growth := new(uint256.Int).Sub(sqrtKNow, sqrtKLast)
	numerator := new(uint256.Int).Mul(totalSupply, growth)
	denomLeft := new(uint256.Int).Mul(five, sqrtKNow)
	denominator := new(uint256.Int).Add(denomLeft, sqrtKLast)
	if denominator.IsZero() {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Div(numerator, denominator)
}

// CalculateLPUserFee reports the slice of the pending protocol-fee mint
// (see CalculateProtocolFee) that would land in fee_to's pocket scaled to
// user's pro-rata stake — used for dashboards, not for settlement.
func (p *Pair) CalculateLPUserFee(user actor.ID) *uint256.Int {
	protocolFee := p.CalculateProtocolFee()
	if protocolFee.IsZero() {
		return uint256.NewInt(0)
	}

	totalSupply := p.Ledger.TotalSupply()
	simulatedSupply := new(uint256.Int).Add(totalSupply, protocolFee)
	if simulatedSupply.IsZero() {
		return uint256.NewInt(0)
	}

	userBalance := p.Ledger.BalanceOf(user)
	numerator := new(uint256.Int).Mul(userBalance, protocolFee)
	return new(uint256.Int).Div(numerator, simulatedSupply)
}

// CalculateRemoveLiquidity returns the (amountA, amountB) a remove-liquidity
// call for liquidity shares would currently pay out, accounting for the
// pending protocol-fee mint's dilution of total supply. It does not mutate
// any state.
func (p *Pair) CalculateRemoveLiquidity(liquidity *uint256.Int) (amountA, amountB *uint256.Int) {
	protocolFee := p.CalculateProtocolFee()
	totalSupply := p.Ledger.TotalSupply()
	simulatedSupply := new(uint256.Int).Add(totalSupply, protocolFee)

	r0, r1 := p.State.Reserves()
	return simulatedPayout(liquidity, r0, r1, simulatedSupply)
}

func simulatedPayout(liquidity, reserve0, reserve1, simulatedSupply *uint256.Int) (*uint256.Int, *uint256.Int) {
	if simulatedSupply.IsZero() {
		return uint256.NewInt(0), uint256.NewInt(0)
	}
	amountA := new(uint256.Int).Div(new(uint256.Int).Mul(liquidity, reserve0), simulatedSupply)
	amountB := new(uint256.Int).Div(new(uint256.Int).Mul(liquidity, reserve1), simulatedSupply)
	return amountA, amountB
}
