package pair

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// RecoverPaused retries the outbound transfer that left the pair Paused,
// picking up at the leg recorded in the lock's context. It never re-runs
// mintFee or re-derives amounts: a paused operation's amounts were already
// fixed before the leg that failed, and recomputing them against reserves
// that may have moved since would double-charge or double-pay.
func (p *Pair) RecoverPaused(ctx context.Context, caller actor.ID) error {
	if err := p.requireCaller(caller, p.State.Admin); err != nil {
		return err
	}

	lctx, err := p.State.Lock.ResumeForRecovery()
	if err != nil {
		return err
	}

	switch lctx.Kind {
	case lock.CtxAddLiqRefund:
		return p.recoverAddLiqRefund(ctx, lctx)
	case lock.CtxSwapRefund:
		return p.recoverSwapRefund(ctx, lctx)
	case lock.CtxRemLiq:
		return p.recoverRemLiq(ctx, lctx)
	case lock.CtxTreasuryPayout:
		return p.recoverTreasuryPayout(ctx, lctx)
	case lock.CtxMigrateAllLiquidity:
		return p.recoverMigrateAllLiquidity(ctx, lctx)
	default:
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindInvalidMessageStatus, "unrecognised paused context kind %s", lctx.Kind)
	}
}

func (p *Pair) recoverAddLiqRefund(ctx context.Context, lctx lock.Ctx) error {
	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMessageToReturnTokensA, lctx.Token, lctx.User, lctx.Amount)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindTokenTransferFailed, "refund retry failed, pair remains paused")
	}
	return p.State.Lock.Release()
}

func (p *Pair) recoverSwapRefund(ctx context.Context, lctx lock.Ctx) error {
	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMessageToReturnTokenIn, lctx.Token, lctx.User, lctx.Amount)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindTokenTransferFailed, "refund retry failed, pair remains paused")
	}
	return p.State.Lock.Release()
}

func (p *Pair) recoverRemLiq(ctx context.Context, lctx lock.Ctx) error {
	if lctx.Stage == lock.StageSendToken0 {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token0, lctx.User, lctx.AmountA)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token0 payout retry failed, pair remains paused")
		}
		lctx.Stage = lock.StageSendToken1
		if err := p.State.Lock.UpdateCtx(lctx); err != nil {
			return err
		}
	}

	_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token1, lctx.User, lctx.AmountB)
	if err != nil || !ok {
		_ = p.State.Lock.Pause()
		return pairerr.New(pairerr.KindTokenTransferFailed, "token1 payout retry failed, pair remains paused")
	}

	r0, r1 := p.State.Reserves()
	newR0 := new(uint256.Int).Sub(r0, lctx.AmountA)
	newR1 := new(uint256.Int).Sub(r1, lctx.AmountB)
	p.State.SetReserves(newR0, newR1)

	if err := p.State.Lock.Release(); err != nil {
		return err
	}
	p.Events.LiquidityRemoved(lctx.User, lctx.AmountA, lctx.AmountB, lctx.Liquidity)
	return nil
}

func (p *Pair) recoverTreasuryPayout(ctx context.Context, lctx lock.Ctx) error {
	if lctx.Stage == lock.StageSendToken0 {
		if !lctx.Fee0.IsZero() {
			_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingTreasuryTokenA, p.State.Token0, lctx.Treasury, lctx.Fee0)
			if err != nil || !ok {
				_ = p.State.Lock.Pause()
				return pairerr.New(pairerr.KindTokenTransferFailed, "token0 treasury payout retry failed, pair remains paused")
			}
		}
		lctx.Stage = lock.StageSendToken1
		if err := p.State.Lock.UpdateCtx(lctx); err != nil {
			return err
		}
	}

	if !lctx.Fee1.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingTreasuryTokenB, p.State.Token1, lctx.Treasury, lctx.Fee1)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token1 treasury payout retry failed, pair remains paused")
		}
	}

	p.State.ResetTreasuryFees()
	if err := p.State.Lock.Release(); err != nil {
		return err
	}
	p.Events.TreasuryFeesCollected(lctx.Treasury, lctx.Fee0, lctx.Fee1)
	return nil
}

func (p *Pair) recoverMigrateAllLiquidity(ctx context.Context, lctx lock.Ctx) error {
	if lctx.Stage == lock.StageSendToken0 {
		if !lctx.Amount0.IsZero() {
			_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token0, lctx.Target, lctx.Amount0)
			if err != nil || !ok {
				_ = p.State.Lock.Pause()
				return pairerr.New(pairerr.KindTokenTransferFailed, "token0 migration retry failed, pair remains paused")
			}
		}
		lctx.Stage = lock.StageSendToken1
		if err := p.State.Lock.UpdateCtx(lctx); err != nil {
			return err
		}
	}

	if !lctx.Amount1.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token1, lctx.Target, lctx.Amount1)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token1 migration retry failed, pair remains paused")
		}
	}

	p.State.SetReserves(uint256.NewInt(0), uint256.NewInt(0))
	p.State.SetKLast(uint256.NewInt(0))
	p.State.ResetTreasuryFees()
	p.State.SetMigrated()

	if err := p.State.Lock.Release(); err != nil {
		return err
	}
	p.Events.LiquidityMigrated(lctx.Target, lctx.Amount0, lctx.Amount1)
	return nil
}
