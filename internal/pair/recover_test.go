package pair

import (
	"context"
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
)

// failAtCall fails exactly the nth call made against it and none other,
// letting a test put a Pair into Paused at a specific leg of a multi-leg
// operation without blocking every call the way alwaysFail does.
type failAtCall struct {
	n     int
	count *int
}

func (f failAtCall) ShouldFail(requestID string) bool {
	*f.count++
	return *f.count == f.n
}

func TestRecoverPausedRetriesRemoveLiquidityFromFailedLeg(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	count := 0
	f.client.WithInjector(failAtCall{n: 1, count: &count})
	_, _, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(0), uint256.NewInt(0), 0)
	if !pairerr.Is(err, pairerr.KindTokenTransferFailed) {
		t.Fatalf("err = %v, want TokenTransferFailed", err)
	}
	if f.pair.State.Lock.State() != lock.StatePaused {
		t.Fatalf("lock = %s, want paused", f.pair.State.Lock.State())
	}

	f.client.WithInjector(nil)
	if err := f.pair.RecoverPaused(context.Background(), admin); err != nil {
		t.Fatalf("RecoverPaused: %v", err)
	}
	if f.pair.State.Lock.State() != lock.StateFree {
		t.Errorf("lock = %s, want free after recovery", f.pair.State.Lock.State())
	}

	r0, r1 := f.pair.State.Reserves()
	if r0.Cmp(uint256.NewInt(1000)) != 0 || r1.Cmp(uint256.NewInt(1000)) != 0 {
		t.Errorf("reserves = (%s, %s), want (1000, 1000)", r0, r1)
	}

	bal0, err := f.client.BalanceOf(context.Background(), token0Addr, alice)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if bal0.Cmp(uint256.NewInt(999_000)) != 0 {
		t.Errorf("alice token0 balance = %s, want payout settled at 999000", bal0)
	}
}

func TestRecoverPausedRePausesOnRepeatedFailure(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	f.client.WithInjector(alwaysFail{})
	_, _, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(0), uint256.NewInt(0), 0)
	if !pairerr.Is(err, pairerr.KindTokenTransferFailed) {
		t.Fatalf("err = %v, want TokenTransferFailed", err)
	}

	err = f.pair.RecoverPaused(context.Background(), admin)
	if !pairerr.Is(err, pairerr.KindTokenTransferFailed) {
		t.Fatalf("err = %v, want TokenTransferFailed", err)
	}
	if f.pair.State.Lock.State() != lock.StatePaused {
		t.Errorf("lock = %s, want paused after repeated failure", f.pair.State.Lock.State())
	}
}

func TestRecoverPausedRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	f.client.WithInjector(alwaysFail{})
	_, _, _ = f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(0), uint256.NewInt(0), 0)

	err := f.pair.RecoverPaused(context.Background(), alice)
	if !pairerr.Is(err, pairerr.KindUnauthorized) {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestRecoverPausedRejectsWhenNotPaused(t *testing.T) {
	f := newFixture(t)
	err := f.pair.RecoverPaused(context.Background(), admin)
	if !pairerr.Is(err, pairerr.KindInvalidMessageStatus) {
		t.Fatalf("err = %v, want InvalidMessageStatus", err)
	}
}
