package pair

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ammmath"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

func (p *Pair) treasuryFeeBPS() uint64 {
	if p.State.TreasuryID().IsZero() {
		return 0
	}
	return ammmath.TreasuryFeeBPS
}

// SwapExactInput trades an exact amountIn of the input side named by dir
// for at least amountOutMin of the output side.
func (p *Pair) SwapExactInput(ctx context.Context, user actor.ID, amountIn, amountOutMin *uint256.Int, dir pairevents.Direction, deadline int64) (amountOut *uint256.Int, err error) {
	if err := checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := p.requireNotMigrated(); err != nil {
		return nil, err
	}

	tokenIn, tokenOut, reserveIn, reserveOut := p.resolveDirection(dir)
	tBps := p.treasuryFeeBPS()

	amountInPool, amountOut, tFee, err := ammmath.GetAmountOutWithTreasury(amountIn, reserveIn, reserveOut, tBps)
	if err != nil {
		return nil, err
	}
	if amountOut.Lt(amountOutMin) {
		return nil, pairerr.New(pairerr.KindInsufficientAmount, "output below requested minimum")
	}

	return p.executeSwap(ctx, user, tokenIn, tokenOut, reserveIn, reserveOut, amountIn, amountInPool, amountOut, tFee, dir)
}

// SwapExactOutput trades at most amountInMax of the input side named by dir
// for an exact amountOut of the output side.
func (p *Pair) SwapExactOutput(ctx context.Context, user actor.ID, amountOut, amountInMax *uint256.Int, dir pairevents.Direction, deadline int64) (amountIn *uint256.Int, err error) {
	if err := checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := p.requireNotMigrated(); err != nil {
		return nil, err
	}

	tokenIn, tokenOut, reserveIn, reserveOut := p.resolveDirection(dir)
	tBps := p.treasuryFeeBPS()

	amountInPool, amountInTotal, tFee, err := ammmath.GetAmountInWithTreasury(amountOut, reserveIn, reserveOut, tBps)
	if err != nil {
		return nil, err
	}
	if amountInTotal.Cmp(amountInMax) > 0 {
		return nil, pairerr.New(pairerr.KindExcessiveInputAmount, "required input exceeds requested maximum")
	}

	if _, err := p.executeSwap(ctx, user, tokenIn, tokenOut, reserveIn, reserveOut, amountInTotal, amountInPool, amountOut, tFee, dir); err != nil {
		return nil, err
	}
	return amountInTotal, nil
}

func (p *Pair) executeSwap(ctx context.Context, user, tokenIn, tokenOut actor.ID, reserveIn, reserveOut, amountIn, amountInPool, amountOut, tFee *uint256.Int, dir pairevents.Direction) (*uint256.Int, error) {
	if amountOut.Cmp(reserveOut) > 0 {
		return nil, pairerr.New(pairerr.KindInsufficientLiquidity, "output exceeds reserve")
	}

	if err := p.State.Lock.Acquire(lock.Ctx{Kind: lock.CtxSwapRefund, User: user, Token: tokenIn, Amount: amountIn}); err != nil {
		return nil, err
	}

	newReserveIn := new(uint256.Int).Add(reserveIn, amountInPool)
	newReserveOut := new(uint256.Int).Sub(reserveOut, amountOut)

	ok, err := ammmath.VerifyConstantProductInvariant(reserveIn, reserveOut, newReserveIn, newReserveOut, amountInPool)
	if err != nil {
		_ = p.State.Lock.Release()
		return nil, err
	}
	if !ok {
		_ = p.State.Lock.Release()
		return nil, pairerr.New(pairerr.KindInvariantViolation, "constant product invariant would be violated")
	}

	_, transferOK, err := p.Gateway.TransferFrom(ctx, pendingops.SendingMsgToTransferTokenIn, tokenIn, user, actor.Zero, amountIn)
	if err != nil || !transferOK {
		_ = p.State.Lock.Release()
		return nil, failureOrRejected(err, "swap input transferFrom")
	}

	_, transferOK, err = p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, tokenOut, user, amountOut)
	if err != nil || !transferOK {
		return nil, p.refundSwapInput(ctx, user, tokenIn, amountIn)
	}

	p.commitSwap(dir, newReserveIn, newReserveOut, tFee)

	if err := p.State.Lock.Release(); err != nil {
		return nil, err
	}
	p.Events.Swap(user, amountIn, amountOut, dir)
	return amountOut, nil
}

func (p *Pair) refundSwapInput(ctx context.Context, user, tokenIn actor.ID, amountIn *uint256.Int) error {
	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMessageToReturnTokenIn, tokenIn, user, amountIn)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindTokenTransferFailed, "swap output transfer failed and input refund also failed")
	}
	_ = p.State.Lock.Release()
	return pairerr.New(pairerr.KindTokenTransferFailed, "swap output transfer failed, input refunded")
}

func (p *Pair) commitSwap(dir pairevents.Direction, newReserveIn, newReserveOut, tFee *uint256.Int) {
	if dir == pairevents.DirectionToken0ToToken1 {
		p.State.SetReserves(newReserveIn, newReserveOut)
		if !tFee.IsZero() {
			p.State.AddTreasuryFees(tFee, uint256.NewInt(0))
		}
		return
	}
	p.State.SetReserves(newReserveOut, newReserveIn)
	if !tFee.IsZero() {
		p.State.AddTreasuryFees(uint256.NewInt(0), tFee)
	}
}
