package pair

import (
	"context"
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
)

func TestRemoveLiquidityPaysOutProRataShare(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	amountA, amountB, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(0), uint256.NewInt(0), 0)
	if err != nil {
		t.Fatalf("RemoveLiquidity: %v", err)
	}
	if amountA.Cmp(uint256.NewInt(9000)) != 0 || amountB.Cmp(uint256.NewInt(9000)) != 0 {
		t.Errorf("payout = (%s, %s), want (9000, 9000)", amountA, amountB)
	}

	r0, r1 := f.pair.State.Reserves()
	if r0.Cmp(uint256.NewInt(1000)) != 0 || r1.Cmp(uint256.NewInt(1000)) != 0 {
		t.Errorf("reserves = (%s, %s), want (1000, 1000)", r0, r1)
	}
	if f.pair.State.Lock.State() != lock.StateFree {
		t.Errorf("lock = %s, want free", f.pair.State.Lock.State())
	}
}

func TestRemoveLiquidityRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	_, _, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(1_000_000), uint256.NewInt(0), uint256.NewInt(0), 0)
	if !pairerr.Is(err, pairerr.KindInsufficientLiquidity) {
		t.Fatalf("err = %v, want InsufficientLiquidity", err)
	}
	if f.pair.State.Lock.State() != lock.StateFree {
		t.Errorf("lock = %s, want free after rejected burn", f.pair.State.Lock.State())
	}
}

func TestRemoveLiquidityRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	_, _, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(9001), uint256.NewInt(0), 0)
	if !pairerr.Is(err, pairerr.KindInsufficientAmount) {
		t.Fatalf("err = %v, want InsufficientAmount", err)
	}
}

func TestRemoveLiquidityPausesOnPayoutFailure(t *testing.T) {
	f := newFixture(t)
	f.seedLiquidity(t, uint256.NewInt(10000), uint256.NewInt(10000))

	// Swap in an injector that fails every call after seeding, so the first
	// (token0) payout leg fails and the pair pauses.
	f.client.WithInjector(alwaysFail{})

	_, _, err := f.pair.RemoveLiquidity(context.Background(), alice, uint256.NewInt(9000), uint256.NewInt(0), uint256.NewInt(0), 0)
	if !pairerr.Is(err, pairerr.KindTokenTransferFailed) {
		t.Fatalf("err = %v, want TokenTransferFailed", err)
	}
	if f.pair.State.Lock.State() != lock.StatePaused {
		t.Errorf("lock = %s, want paused", f.pair.State.Lock.State())
	}
}

type alwaysFail struct{}

func (alwaysFail) ShouldFail(requestID string) bool { return true }
