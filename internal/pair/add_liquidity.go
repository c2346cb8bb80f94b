package pair

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ammmath"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// AddLiquidity deposits amountADesired/amountBDesired (bounded below by
// amountAMin/amountBMin) from user, minting LP shares proportional to the
// pool's existing reserves, or seeding the pool on its first deposit.
func (p *Pair) AddLiquidity(ctx context.Context, user actor.ID, amountADesired, amountBDesired, amountAMin, amountBMin *uint256.Int, deadline int64) (liquidity *uint256.Int, err error) {
	if err := checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := p.requireNotMigrated(); err != nil {
		return nil, err
	}
	if amountADesired.IsZero() || amountBDesired.IsZero() {
		return nil, pairerr.New(pairerr.KindInsufficientAmount, "desired amounts must be non-zero")
	}

	if err := p.State.Lock.Acquire(lock.Ctx{Kind: lock.CtxAddLiqRefund, User: user, Token: p.State.Token0, Amount: uint256.NewInt(0)}); err != nil {
		return nil, err
	}

	r0, r1 := p.State.Reserves()
	amountA, amountB, err := ammmath.OptimalAmounts(r0, r1, amountADesired, amountBDesired, amountAMin, amountBMin)
	if err != nil {
		_ = p.State.Lock.Release()
		return nil, err
	}

	_, ok, err := p.Gateway.TransferFrom(ctx, pendingops.SendingMsgToLockTokenA, p.State.Token0, user, actor.Zero, amountA)
	if err != nil || !ok {
		_ = p.State.Lock.Release()
		return nil, failureOrRejected(err, "token0 transferFrom")
	}

	if err := p.State.Lock.UpdateCtx(lock.Ctx{Kind: lock.CtxAddLiqRefund, User: user, Token: p.State.Token0, Amount: amountA}); err != nil {
		return nil, err
	}

	_, ok, err = p.Gateway.TransferFrom(ctx, pendingops.SendingMsgToLockTokenB, p.State.Token1, user, actor.Zero, amountB)
	if err != nil || !ok {
		return nil, p.refundToken0(ctx, user, amountA)
	}

	feeOn, err := p.mintFee()
	if err != nil {
		_ = p.State.Lock.Pause()
		return nil, err
	}

	totalSupply := p.Ledger.TotalSupply()
	liquidity, err = ammmath.CalculateLiquidity(r0, r1, amountA, amountB, totalSupply)
	if err != nil {
		_ = p.State.Lock.Pause()
		return nil, err
	}

	if totalSupply.IsZero() {
		if err := p.Ledger.Mint(actor.Zero, uint256.NewInt(ammmath.MinimumLiquidity)); err != nil {
			_ = p.State.Lock.Pause()
			return nil, err
		}
	}

	if err := p.Ledger.Mint(user, liquidity); err != nil {
		_ = p.State.Lock.Pause()
		return nil, err
	}

	newR0 := new(uint256.Int).Add(r0, amountA)
	newR1 := new(uint256.Int).Add(r1, amountB)
	p.State.SetReserves(newR0, newR1)

	if feeOn {
		p.State.SetKLast(new(uint256.Int).Mul(newR0, newR1))
	}

	if err := p.State.Lock.Release(); err != nil {
		return nil, err
	}
	p.Events.LiquidityAdded(user, amountA, amountB, liquidity)
	return liquidity, nil
}

// refundToken0 returns amountA of token0 to user after a failed second-leg
// transfer, releasing the lock on success and pausing it on failure so
// recover_paused can retry.
func (p *Pair) refundToken0(ctx context.Context, user actor.ID, amountA *uint256.Int) error {
	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMessageToReturnTokensA, p.State.Token0, user, amountA)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindTokenTransferFailed, "token1 transferFrom failed and token0 refund also failed")
	}
	_ = p.State.Lock.Release()
	return pairerr.New(pairerr.KindTokenTransferFailed, "token1 transferFrom failed, token0 refunded")
}

func failureOrRejected(err error, what string) error {
	if err != nil {
		return err
	}
	return pairerr.New(pairerr.KindTokenTransferFailed, "%s rejected", what)
}
