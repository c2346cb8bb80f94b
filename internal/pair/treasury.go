package pair

import (
	"context"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// SendTreasuryFees pays out the accrued treasury surcharge on both sides to
// the treasury identity. Callable only by the treasury itself.
func (p *Pair) SendTreasuryFees(ctx context.Context, caller actor.ID) error {
	treasury := p.State.TreasuryID()
	if treasury.IsZero() {
		return pairerr.New(pairerr.KindUnauthorized, "treasury is not configured")
	}
	if err := p.requireCaller(caller, treasury); err != nil {
		return err
	}

	fee0, fee1 := p.State.TreasuryFees()
	if fee0.IsZero() && fee1.IsZero() {
		return pairerr.New(pairerr.KindNoTreasuryFees, "no accrued treasury fees")
	}

	if err := p.State.Lock.Acquire(lock.Ctx{Kind: lock.CtxTreasuryPayout, Treasury: treasury, Fee0: fee0, Fee1: fee1, Stage: lock.StageSendToken0}); err != nil {
		return err
	}

	if !fee0.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingTreasuryTokenA, p.State.Token0, treasury, fee0)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token0 treasury payout failed, pair paused for recovery")
		}
	}

	if err := p.State.Lock.UpdateCtx(lock.Ctx{Kind: lock.CtxTreasuryPayout, Treasury: treasury, Fee0: fee0, Fee1: fee1, Stage: lock.StageSendToken1}); err != nil {
		return err
	}

	if !fee1.IsZero() {
		_, ok, err := p.Gateway.Transfer(ctx, pendingops.SendingTreasuryTokenB, p.State.Token1, treasury, fee1)
		if err != nil || !ok {
			_ = p.State.Lock.Pause()
			return pairerr.New(pairerr.KindTokenTransferFailed, "token1 treasury payout failed, pair paused for recovery")
		}
	}

	p.State.ResetTreasuryFees()
	if err := p.State.Lock.Release(); err != nil {
		return err
	}
	p.Events.TreasuryFeesCollected(treasury, fee0, fee1)
	return nil
}

// ChangeFeeTo updates the protocol-fee recipient. Callable only by the
// factory.
func (p *Pair) ChangeFeeTo(caller, newFeeTo actor.ID) error {
	if err := p.requireCaller(caller, p.State.Factory); err != nil {
		return err
	}
	p.State.SetFeeTo(newFeeTo)
	return nil
}

// ChangeTreasuryID updates the treasury identity. Callable only by the
// admin. Setting it to the zero identity disables the treasury surcharge.
func (p *Pair) ChangeTreasuryID(caller, newTreasury actor.ID) error {
	if err := p.requireCaller(caller, p.State.Admin); err != nil {
		return err
	}
	p.State.SetTreasury(newTreasury)
	return nil
}

// SetLock toggles the admin emergency soft gate: it blocks new operations
// from entering Busy but never forces a running or paused operation to
// stop, and never blocks recover_paused.
func (p *Pair) SetLock(caller actor.ID, paused bool) error {
	if err := p.requireCaller(caller, p.State.Admin); err != nil {
		return err
	}
	p.State.Lock.SetPausedByAdmin(paused)
	return nil
}
