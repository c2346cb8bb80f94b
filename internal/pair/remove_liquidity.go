package pair

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// RemoveLiquidity burns liquidity LP shares held by user and pays out the
// pro-rata share of both reserves, bounded below by amountAMin/amountBMin.
func (p *Pair) RemoveLiquidity(ctx context.Context, user actor.ID, liquidity, amountAMin, amountBMin *uint256.Int, deadline int64) (amountA, amountB *uint256.Int, err error) {
	if err := checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if err := p.requireNotMigrated(); err != nil {
		return nil, nil, err
	}

	if err := p.State.Lock.Acquire(lock.Ctx{Kind: lock.CtxRemLiq, User: user, Liquidity: liquidity, Stage: lock.StageSendToken0}); err != nil {
		return nil, nil, err
	}

	if p.Ledger.BalanceOf(user).Lt(liquidity) {
		_ = p.State.Lock.Release()
		return nil, nil, pairerr.New(pairerr.KindInsufficientLiquidity, "balance below requested liquidity")
	}

	protocolFee := p.CalculateProtocolFee()
	totalSupply := p.Ledger.TotalSupply()
	simulatedSupply := new(uint256.Int).Add(totalSupply, protocolFee)

	r0, r1 := p.State.Reserves()
	amountA, amountB = simulatedPayout(liquidity, r0, r1, simulatedSupply)

	if amountA.Lt(amountAMin) || amountB.Lt(amountBMin) {
		_ = p.State.Lock.Release()
		return nil, nil, pairerr.New(pairerr.KindInsufficientAmount, "payout below requested minimum")
	}
	if amountA.Cmp(r0) > 0 || amountB.Cmp(r1) > 0 {
		_ = p.State.Lock.Release()
		return nil, nil, pairerr.New(pairerr.KindInsufficientLiquidity, "payout exceeds reserves")
	}

	feeOn, err := p.mintFee()
	if err != nil {
		_ = p.State.Lock.Release()
		return nil, nil, err
	}

	if err := p.Ledger.Burn(user, liquidity); err != nil {
		_ = p.State.Lock.Release()
		return nil, nil, err
	}

	if err := p.State.Lock.UpdateCtx(lock.Ctx{Kind: lock.CtxRemLiq, User: user, Liquidity: liquidity, AmountA: amountA, AmountB: amountB, Stage: lock.StageSendToken0}); err != nil {
		return nil, nil, err
	}

	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token0, user, amountA)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return nil, nil, pairerr.New(pairerr.KindTokenTransferFailed, "token0 payout failed, pair paused for recovery")
	}

	if err := p.State.Lock.UpdateCtx(lock.Ctx{Kind: lock.CtxRemLiq, User: user, Liquidity: liquidity, AmountA: amountA, AmountB: amountB, Stage: lock.StageSendToken1}); err != nil {
		return nil, nil, err
	}

	_, ok, err = p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token1, user, amountB)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return nil, nil, pairerr.New(pairerr.KindTokenTransferFailed, "token1 payout failed, pair paused for recovery")
	}

	newR0 := new(uint256.Int).Sub(r0, amountA)
	newR1 := new(uint256.Int).Sub(r1, amountB)
	p.State.SetReserves(newR0, newR1)

	if feeOn {
		p.State.SetKLast(new(uint256.Int).Mul(newR0, newR1))
	}

	if err := p.State.Lock.Release(); err != nil {
		return nil, nil, err
	}
	p.Events.LiquidityRemoved(user, amountA, amountB, liquidity)
	return amountA, amountB, nil
}
