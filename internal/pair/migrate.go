package pair

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// MigrateAllLiquidity is the terminal admin-only operation: it sweeps the
// pool's entire real token balance (which may exceed accounted reserves by
// whatever dust has accumulated) to target and marks the pair migrated.
// Once migrated, every user-facing mutator rejects.
func (p *Pair) MigrateAllLiquidity(ctx context.Context, caller, target actor.ID) error {
	if err := p.requireCaller(caller, p.State.Admin); err != nil {
		return err
	}
	if err := p.requireNotMigrated(); err != nil {
		return err
	}
	if p.State.Lock.State() != lock.StateFree {
		return pairerr.New(pairerr.KindAnotherTxInProgress, "lock is not free")
	}

	amount0, err := p.Gateway.BalanceOf(ctx, p.State.Token0, p.poolID())
	if err != nil {
		return err
	}
	amount1, err := p.Gateway.BalanceOf(ctx, p.State.Token1, p.poolID())
	if err != nil {
		return err
	}

	if amount0.IsZero() && amount1.IsZero() {
		return pairerr.New(pairerr.KindNoLiquidityToMigrate, "pool holds no balance to migrate")
	}

	if err := p.State.Lock.Acquire(lock.Ctx{Kind: lock.CtxMigrateAllLiquidity, Target: target, Amount0: amount0, Amount1: amount1, Stage: lock.StageSendToken0}); err != nil {
		return err
	}

	if !amount0.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token0, target, amount0)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token0 migration transfer failed, pair paused for recovery")
		}
	}

	if err := p.State.Lock.UpdateCtx(lock.Ctx{Kind: lock.CtxMigrateAllLiquidity, Target: target, Amount0: amount0, Amount1: amount1, Stage: lock.StageSendToken1}); err != nil {
		return err
	}

	if !amount1.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingMsgToTransferTokenOut, p.State.Token1, target, amount1)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token1 migration transfer failed, pair paused for recovery")
		}
	}

	p.State.SetReserves(uint256.NewInt(0), uint256.NewInt(0))
	p.State.SetKLast(uint256.NewInt(0))
	p.State.ResetTreasuryFees()
	p.State.SetMigrated()

	if err := p.State.Lock.Release(); err != nil {
		return err
	}
	p.Events.LiquidityMigrated(target, amount0, amount1)
	return nil
}

// poolID is the identity under which the pool holds its own token
// balances; token contracts key balance_of on it the same way transfers
// into the pool name it as their recipient elsewhere in this package.
func (p *Pair) poolID() actor.ID {
	return actor.Zero
}
