// Package lock implements the pair's single-slot state machine. Exactly one
// operation may be in flight against a pair at a time; the lock records
// enough context about that operation (LockCtx) that a Paused pair can be
// resumed or refunded by an operator without losing track of what it owed.
package lock

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
)

// State is the lock's coarse state.
type State string

const (
	StateFree   State = "free"
	StateBusy   State = "busy"
	StatePaused State = "paused"
)

// CtxKind identifies which operation a LockCtx belongs to.
type CtxKind string

const (
	CtxAddLiqRefund        CtxKind = "AddLiqRefund"
	CtxRemLiq              CtxKind = "RemLiq"
	CtxSwapRefund          CtxKind = "SwapRefund"
	CtxTreasuryPayout      CtxKind = "TreasuryPayout"
	CtxMigrateAllLiquidity CtxKind = "MigrateAllLiquidity"
)

// Stage marks progress through a multi-leg transfer sequence, used by
// operations that move funds out on two legs (remove-liquidity, treasury
// payout, migration) so a paused op resumes at the right leg.
type Stage string

const (
	StageSendToken0 Stage = "SendToken0"
	StageSendToken1 Stage = "SendToken1"
)

// Ctx is the tagged union of data an in-flight or paused operation carries.
// Only the fields relevant to Kind are populated; the rest are left at
// their zero value.
type Ctx struct {
	Kind CtxKind

	// AddLiqRefund, SwapRefund: refund target and amount if the in-flight
	// leg fails.
	User   actor.ID
	Token  actor.ID
	Amount *uint256.Int

	// RemLiq: the two-leg payout of amountA/amountB for liquidity burned,
	// driven by Stage.
	Liquidity *uint256.Int
	AmountA   *uint256.Int
	AmountB   *uint256.Int
	Stage     Stage

	// TreasuryPayout: the two-leg fee payout.
	Treasury actor.ID
	Fee0     *uint256.Int
	Fee1     *uint256.Int

	// MigrateAllLiquidity: the terminal two-leg balance sweep.
	Target  actor.ID
	Amount0 *uint256.Int
	Amount1 *uint256.Int
}

// Lock is the pair's single-slot state machine.
type Lock struct {
	mu            sync.Mutex
	state         State
	ctx           Ctx
	pausedByAdmin bool
}

// New returns a Free lock.
func New() *Lock {
	return &Lock{state: StateFree}
}

// State returns the lock's current coarse state.
func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// PausedByAdmin reports whether an admin has soft-gated new operations.
// This gate is checked only at Free→Busy entry; it never forces a running
// or paused operation to stop.
func (l *Lock) PausedByAdmin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pausedByAdmin
}

// SetPausedByAdmin toggles the admin soft gate.
func (l *Lock) SetPausedByAdmin(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pausedByAdmin = paused
}

// Acquire transitions Free → Busy(ctx). It fails if the lock is not Free or
// the admin soft gate is set.
func (l *Lock) Acquire(ctx Ctx) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateFree {
		return pairerr.New(pairerr.KindAnotherTxInProgress, "lock is %s", l.state)
	}
	if l.pausedByAdmin {
		return pairerr.New(pairerr.KindUnauthorized, "pair is paused by admin")
	}

	l.state = StateBusy
	l.ctx = ctx
	return nil
}

// UpdateCtx replaces the context of a Busy lock, used to record refund
// targets or stage advancement as an operation progresses.
func (l *Lock) UpdateCtx(ctx Ctx) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBusy {
		return pairerr.New(pairerr.KindInvalidMessageStatus, "lock is %s, not busy", l.state)
	}
	l.ctx = ctx
	return nil
}

// Release transitions Busy → Free, used when an operation completes
// cleanly or fails before any user funds moved.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBusy {
		return pairerr.New(pairerr.KindInvalidMessageStatus, "lock is %s, not busy", l.state)
	}
	l.state = StateFree
	l.ctx = Ctx{}
	return nil
}

// Pause transitions Busy(ctx) → Paused(ctx), preserving the context verbatim
// so recover_paused can reissue the failing transfer.
func (l *Lock) Pause() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateBusy {
		return pairerr.New(pairerr.KindInvalidMessageStatus, "lock is %s, not busy", l.state)
	}
	l.state = StatePaused
	return nil
}

// Ctx returns the context of the current Busy or Paused operation.
func (l *Lock) Ctx() (Ctx, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateFree {
		return Ctx{}, false
	}
	return l.ctx, true
}

// ResumeForRecovery re-enters Busy with the Paused context so recover_paused
// can reissue the failing transfer using the same code paths as the
// originating operation. The caller is responsible for calling Release or
// Pause again depending on the outcome.
func (l *Lock) ResumeForRecovery() (Ctx, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StatePaused {
		return Ctx{}, pairerr.New(pairerr.KindInvalidMessageStatus, "lock is %s, not paused", l.state)
	}
	l.state = StateBusy
	return l.ctx, nil
}

// Snapshot returns the lock's persisted fields, for storage.
func (l *Lock) Snapshot() (State, Ctx, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.ctx, l.pausedByAdmin
}

// Restore replaces the lock's state wholesale, used when recovering from
// persisted storage.
func (l *Lock) Restore(state State, ctx Ctx, pausedByAdmin bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	l.ctx = ctx
	l.pausedByAdmin = pausedByAdmin
}
