package lock

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

func TestAcquireFromFree(t *testing.T) {
	l := New()
	user := actor.MustFromHex("0x0000000000000000000000000000000000000001")

	err := l.Acquire(Ctx{Kind: CtxAddLiqRefund, User: user, Amount: uint256.NewInt(0)})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if l.State() != StateBusy {
		t.Errorf("state = %s, want busy", l.State())
	}
}

func TestAcquireFailsWhenNotFree(t *testing.T) {
	l := New()
	_ = l.Acquire(Ctx{Kind: CtxSwapRefund})

	if err := l.Acquire(Ctx{Kind: CtxSwapRefund}); err == nil {
		t.Fatal("expected error acquiring an already-busy lock")
	}
}

func TestAcquireFailsWhenAdminPaused(t *testing.T) {
	l := New()
	l.SetPausedByAdmin(true)

	if err := l.Acquire(Ctx{Kind: CtxSwapRefund}); err == nil {
		t.Fatal("expected error acquiring while admin-paused")
	}
}

func TestReleaseReturnsToFree(t *testing.T) {
	l := New()
	_ = l.Acquire(Ctx{Kind: CtxSwapRefund})

	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if l.State() != StateFree {
		t.Errorf("state = %s, want free", l.State())
	}
	if _, ok := l.Ctx(); ok {
		t.Error("expected no ctx after release")
	}
}

func TestReleaseFailsWhenFree(t *testing.T) {
	l := New()
	if err := l.Release(); err == nil {
		t.Fatal("expected error releasing a free lock")
	}
}

func TestPausePreservesCtx(t *testing.T) {
	l := New()
	user := actor.MustFromHex("0x0000000000000000000000000000000000000001")
	ctx := Ctx{Kind: CtxSwapRefund, User: user, Amount: uint256.NewInt(500)}
	_ = l.Acquire(ctx)

	if err := l.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if l.State() != StatePaused {
		t.Errorf("state = %s, want paused", l.State())
	}
	got, ok := l.Ctx()
	if !ok {
		t.Fatal("expected ctx to survive pause")
	}
	if got.User != user || got.Amount.Uint64() != 500 {
		t.Errorf("ctx not preserved verbatim: %+v", got)
	}
}

func TestResumeForRecoveryReturnsToBusy(t *testing.T) {
	l := New()
	_ = l.Acquire(Ctx{Kind: CtxTreasuryPayout})
	_ = l.Pause()

	ctx, err := l.ResumeForRecovery()
	if err != nil {
		t.Fatalf("ResumeForRecovery: %v", err)
	}
	if ctx.Kind != CtxTreasuryPayout {
		t.Errorf("ctx.Kind = %s, want %s", ctx.Kind, CtxTreasuryPayout)
	}
	if l.State() != StateBusy {
		t.Errorf("state = %s, want busy", l.State())
	}
}

func TestResumeForRecoveryFailsWhenNotPaused(t *testing.T) {
	l := New()
	if _, err := l.ResumeForRecovery(); err == nil {
		t.Fatal("expected error resuming a free lock")
	}
}

func TestUpdateCtxRequiresBusy(t *testing.T) {
	l := New()
	if err := l.UpdateCtx(Ctx{Kind: CtxRemLiq}); err == nil {
		t.Fatal("expected error updating ctx on a free lock")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l := New()
	user := actor.MustFromHex("0x0000000000000000000000000000000000000001")
	_ = l.Acquire(Ctx{Kind: CtxRemLiq, User: user, Liquidity: uint256.NewInt(42), Stage: StageSendToken1})
	_ = l.Pause()

	state, ctx, pausedByAdmin := l.Snapshot()

	restored := New()
	restored.Restore(state, ctx, pausedByAdmin)

	if restored.State() != StatePaused {
		t.Errorf("restored state = %s, want paused", restored.State())
	}
	got, ok := restored.Ctx()
	if !ok || got.Liquidity.Uint64() != 42 || got.Stage != StageSendToken1 {
		t.Errorf("restored ctx mismatch: %+v, %v", got, ok)
	}
}
