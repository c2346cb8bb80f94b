// Package ammmath implements the constant-product AMM's fixed-point
// arithmetic over 256-bit unsigned integers: quoting, optimal-amount
// selection, liquidity-share accounting, and the swap input/output formulas
// with and without the treasury surcharge.
//
// Every division here is an explicit floor division unless documented
// otherwise; get_amount_in adds 1 after flooring on purpose, to round in the
// pool's favor.
package ammmath

import (
	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
)

// MinimumLiquidity is burned to the zero identity on the pool's first mint,
// preventing share-price rounding attacks on an empty pool.
const MinimumLiquidity = 1000

// FeeDenomBPS is the basis-point denominator (100.00%).
const FeeDenomBPS = 10_000

// TreasuryFeeBPS is the optional treasury surcharge (0.05%).
const TreasuryFeeBPS = 5

var (
	u0     = uint256.NewInt(0)
	u1     = uint256.NewInt(1)
	u997   = uint256.NewInt(997)
	u1000  = uint256.NewInt(1000)
	u10000 = uint256.NewInt(FeeDenomBPS)
	uMin   = uint256.NewInt(MinimumLiquidity)
)

func overflows(v *uint256.Int, overflow bool) (*uint256.Int, error) {
	if overflow {
		return nil, pairerr.New(pairerr.KindOverflow, "arithmetic overflow")
	}
	return v, nil
}

func mul(a, b *uint256.Int) (*uint256.Int, error) {
	r, overflow := new(uint256.Int).MulOverflow(a, b)
	return overflows(r, overflow)
}

func add(a, b *uint256.Int) (*uint256.Int, error) {
	r, overflow := new(uint256.Int).AddOverflow(a, b)
	return overflows(r, overflow)
}

func sub(a, b *uint256.Int) (*uint256.Int, error) {
	if a.Lt(b) {
		return nil, pairerr.New(pairerr.KindOverflow, "subtraction underflow")
	}
	return new(uint256.Int).Sub(a, b), nil
}

// Quote returns floor(amountA * reserveB / reserveA). It returns 0 when
// amountA is zero, and fails InsufficientLiquidity when either reserve is
// zero.
func Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if amountA.IsZero() {
		return uint256.NewInt(0), nil
	}
	if reserveA.IsZero() || reserveB.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "zero reserve")
	}
	numerator, err := mul(amountA, reserveB)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(numerator, reserveA), nil
}

// OptimalAmounts selects the (amountA, amountB) pair a liquidity add should
// use given desired and minimum amounts. On an empty pool it seeds with the
// desired amounts verbatim.
func OptimalAmounts(reserveA, reserveB, amountADesired, amountBDesired, amountAMin, amountBMin *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if reserveA.IsZero() && reserveB.IsZero() {
		return new(uint256.Int).Set(amountADesired), new(uint256.Int).Set(amountBDesired), nil
	}

	amountBOptimal, err := Quote(amountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if amountBOptimal.Cmp(amountBDesired) <= 0 {
		if amountBOptimal.Lt(amountBMin) {
			return nil, nil, pairerr.New(pairerr.KindInsufficientAmountB, "below minimum")
		}
		return new(uint256.Int).Set(amountADesired), amountBOptimal, nil
	}

	amountAOptimal, err := Quote(amountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if amountAOptimal.Gt(amountADesired) {
		return nil, nil, pairerr.New(pairerr.KindInsufficientAmountA, "exceeds desired")
	}
	if amountAOptimal.Lt(amountAMin) {
		return nil, nil, pairerr.New(pairerr.KindInsufficientAmountA, "below minimum")
	}
	return amountAOptimal, new(uint256.Int).Set(amountBDesired), nil
}

// CalculateLiquidity returns the LP shares to mint for a liquidity add.
// On the first deposit it returns floor(sqrt(addedA*addedB)) - MinimumLiquidity,
// requiring the raw sqrt to be at least MinimumLiquidity. Subsequent deposits
// mint proportionally to the smaller of the two sides' pro-rata shares.
func CalculateLiquidity(reserveA, reserveB, addedA, addedB, totalSupply *uint256.Int) (*uint256.Int, error) {
	var liquidity *uint256.Int

	if totalSupply.IsZero() {
		product, err := mul(addedA, addedB)
		if err != nil {
			return nil, err
		}
		sqrt := new(uint256.Int).Sqrt(product)
		if sqrt.Lt(uMin) {
			return nil, pairerr.New(pairerr.KindInsufficientLiquidityMinted, "sqrt below minimum liquidity")
		}
		liquidity = new(uint256.Int).Sub(sqrt, uMin)
	} else {
		liqA, err := mulDivFloor(addedA, totalSupply, reserveA)
		if err != nil {
			return nil, err
		}
		liqB, err := mulDivFloor(addedB, totalSupply, reserveB)
		if err != nil {
			return nil, err
		}
		if liqA.Lt(liqB) {
			liquidity = liqA
		} else {
			liquidity = liqB
		}
	}

	if liquidity.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidityMinted, "zero liquidity minted")
	}
	return liquidity, nil
}

func mulDivFloor(a, b, denom *uint256.Int) (*uint256.Int, error) {
	numerator, err := mul(a, b)
	if err != nil {
		return nil, err
	}
	if denom.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "zero reserve")
	}
	return new(uint256.Int).Div(numerator, denom), nil
}

// GetAmountOut computes the output amount for an exact-input swap of
// amountIn against (reserveIn, reserveOut), applying the 0.30% pool fee
// (997/1000 multiplier).
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientAmount, "zero input")
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "zero reserve")
	}

	amountInWithFee, err := mul(amountIn, u997)
	if err != nil {
		return nil, err
	}
	numerator, err := mul(amountInWithFee, reserveOut)
	if err != nil {
		return nil, err
	}
	denomPart, err := mul(reserveIn, u1000)
	if err != nil {
		return nil, err
	}
	denominator, err := add(denomPart, amountInWithFee)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(numerator, denominator), nil
}

// GetAmountIn computes the required input amount for an exact-output swap
// of amountOut against (reserveIn, reserveOut), applying the 0.30% pool fee.
// The result is the floor of the Uniswap formula plus 1, rounding in the
// pool's favor rather than the trader's.
func GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientAmount, "zero output")
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "zero reserve")
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "output exceeds reserve")
	}

	numeratorPart, err := mul(reserveIn, amountOut)
	if err != nil {
		return nil, err
	}
	numerator, err := mul(numeratorPart, u1000)
	if err != nil {
		return nil, err
	}
	remaining, err := sub(reserveOut, amountOut)
	if err != nil {
		return nil, err
	}
	denominator, err := mul(remaining, u997)
	if err != nil {
		return nil, err
	}
	floor := new(uint256.Int).Div(numerator, denominator)
	result, err := add(floor, u1)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAmountOutWithTreasury splits amountInTotal into the treasury surcharge
// and the pool-facing amount, then applies GetAmountOut to the pool-facing
// portion. When treasuryBPS is zero the treasury fee is disabled and the
// full amount enters the pool.
func GetAmountOutWithTreasury(amountInTotal, reserveIn, reserveOut *uint256.Int, treasuryBPS uint64) (amountInPool, amountOut, treasuryFee *uint256.Int, err error) {
	if amountInTotal.IsZero() {
		return nil, nil, nil, pairerr.New(pairerr.KindInsufficientAmount, "zero input")
	}

	if treasuryBPS == 0 {
		treasuryFee = uint256.NewInt(0)
	} else {
		numerator, e := mul(amountInTotal, uint256.NewInt(treasuryBPS))
		if e != nil {
			return nil, nil, nil, e
		}
		treasuryFee = new(uint256.Int).Div(numerator, u10000)
	}

	amountInPool, err = sub(amountInTotal, treasuryFee)
	if err != nil {
		return nil, nil, nil, err
	}
	if amountInPool.IsZero() {
		return nil, nil, nil, pairerr.New(pairerr.KindInsufficientAmount, "zero pool input after treasury fee")
	}

	amountOut, err = GetAmountOut(amountInPool, reserveIn, reserveOut)
	if err != nil {
		return nil, nil, nil, err
	}
	return amountInPool, amountOut, treasuryFee, nil
}

// GetAmountInWithTreasury computes the pool-facing input, the total input
// the trader must pay (including the treasury surcharge, rounded up so the
// pool always receives at least what GetAmountIn requires), and the
// treasury's cut.
func GetAmountInWithTreasury(amountOut, reserveIn, reserveOut *uint256.Int, treasuryBPS uint64) (amountInPool, amountInTotal, treasuryFee *uint256.Int, err error) {
	amountInPool, err = GetAmountIn(amountOut, reserveIn, reserveOut)
	if err != nil {
		return nil, nil, nil, err
	}
	if amountInPool.IsZero() {
		return nil, nil, nil, pairerr.New(pairerr.KindInsufficientAmount, "zero pool input")
	}

	if treasuryBPS == 0 {
		return amountInPool, new(uint256.Int).Set(amountInPool), uint256.NewInt(0), nil
	}

	denomMinusTreasury, err := sub(u10000, uint256.NewInt(treasuryBPS))
	if err != nil {
		return nil, nil, nil, err
	}

	numerator, err := mul(amountInPool, u10000)
	if err != nil {
		return nil, nil, nil, err
	}
	ceilAdjust, err := sub(denomMinusTreasury, u1)
	if err != nil {
		return nil, nil, nil, err
	}
	numeratorCeil, err := add(numerator, ceilAdjust)
	if err != nil {
		return nil, nil, nil, err
	}
	amountInTotal = new(uint256.Int).Div(numeratorCeil, denomMinusTreasury)

	treasuryFee, err = sub(amountInTotal, amountInPool)
	if err != nil {
		return nil, nil, nil, err
	}
	return amountInPool, amountInTotal, treasuryFee, nil
}

// VerifyConstantProductInvariant checks that, after applying the 0.30% pool
// fee to the pool-facing input leg, the post-swap product does not fall
// below the pre-swap product scaled by 1000^2. newReserveIn/newReserveOut
// already reflect the pool-facing (treasury-excluded) amounts.
func VerifyConstantProductInvariant(reserveIn, reserveOut, newReserveIn, newReserveOut, amountInPool *uint256.Int) (bool, error) {
	feeAdjustedIn, err := mul(amountInPool, uint256.NewInt(3))
	if err != nil {
		return false, err
	}
	newInScaled, err := mul(newReserveIn, u1000)
	if err != nil {
		return false, err
	}
	lhsIn, err := sub(newInScaled, feeAdjustedIn)
	if err != nil {
		return false, err
	}
	newOutScaled, err := mul(newReserveOut, u1000)
	if err != nil {
		return false, err
	}
	lhs, err := mul(lhsIn, newOutScaled)
	if err != nil {
		return false, err
	}

	rhsProduct, err := mul(reserveIn, reserveOut)
	if err != nil {
		return false, err
	}
	rhsScale, err := mul(u1000, u1000)
	if err != nil {
		return false, err
	}
	rhs, err := mul(rhsProduct, rhsScale)
	if err != nil {
		return false, err
	}

	return lhs.Cmp(rhs) >= 0, nil
}

// FloorSqrt returns the floor of the square root of v.
func FloorSqrt(v *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sqrt(v)
}
