package pairstore

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

var (
	token0  = actor.MustFromHex("0x0000000000000000000000000000000000000001")
	token1  = actor.MustFromHex("0x0000000000000000000000000000000000000002")
	admin   = actor.MustFromHex("0x0000000000000000000000000000000000000003")
	factory = actor.MustFromHex("0x0000000000000000000000000000000000000004")
	alice   = actor.MustFromHex("0x0000000000000000000000000000000000000005")
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(&Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadStateOnFreshStoreReportsNotFound(t *testing.T) {
	s := newTestStore(t)

	state := pairstate.New(token0, token1, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	led := ledger.New()
	ops := pendingops.New(nil)

	found, err := s.LoadState(state, led, ops)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if found {
		t.Fatal("expected found = false on an empty store")
	}
}

func TestSaveAndLoadStateRoundTrips(t *testing.T) {
	s := newTestStore(t)

	state := pairstate.New(token0, token1, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	state.SetReserves(uint256.NewInt(10000), uint256.NewInt(20000))
	state.SetKLast(uint256.NewInt(200000000))
	state.AddTreasuryFees(uint256.NewInt(7), uint256.NewInt(3))

	led := ledger.New()
	if err := led.Mint(alice, uint256.NewInt(9000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := led.Mint(actor.Zero, uint256.NewInt(1000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	ops := pendingops.New(nil)
	ops.Insert("req-1", pendingops.SendingMsgToTransferTokenOut)

	if err := s.SaveState(state, led, ops); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loadedState := pairstate.New(actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, pairstate.Config{})
	loadedLedger := ledger.New()
	loadedOps := pendingops.New(nil)

	found, err := s.LoadState(loadedState, loadedLedger, loadedOps)
	require.NoError(t, err)
	require.True(t, found, "expected found = true after a save")

	r0, r1 := loadedState.Reserves()
	require.Zero(t, r0.Cmp(uint256.NewInt(10000)), "reserve0 = %s, want 10000", r0)
	require.Zero(t, r1.Cmp(uint256.NewInt(20000)), "reserve1 = %s, want 20000", r1)
	require.Zero(t, loadedState.KLastValue().Cmp(uint256.NewInt(200000000)), "k_last = %s, want 200000000", loadedState.KLastValue())

	fee0, fee1 := loadedState.TreasuryFees()
	require.Zero(t, fee0.Cmp(uint256.NewInt(7)), "fee0 = %s, want 7", fee0)
	require.Zero(t, fee1.Cmp(uint256.NewInt(3)), "fee1 = %s, want 3", fee1)

	require.Zero(t, loadedLedger.BalanceOf(alice).Cmp(uint256.NewInt(9000)), "alice LP balance = %s, want 9000", loadedLedger.BalanceOf(alice))
	require.Zero(t, loadedLedger.BalanceOf(actor.Zero).Cmp(uint256.NewInt(1000)), "zero-identity LP balance = %s, want 1000", loadedLedger.BalanceOf(actor.Zero))
	require.Zero(t, loadedLedger.TotalSupply().Cmp(uint256.NewInt(10000)), "total supply = %s, want 10000", loadedLedger.TotalSupply())

	status, ok := loadedOps.Get("req-1")
	require.True(t, ok, "expected req-1 to be restored")
	require.Equal(t, pendingops.SendingMsgToTransferTokenOut, status.Kind)
	require.False(t, status.Completed)
}

func TestSaveStateRoundTripsPausedLockContext(t *testing.T) {
	s := newTestStore(t)

	state := pairstate.New(token0, token1, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	ctx := lock.Ctx{
		Kind:      lock.CtxRemLiq,
		User:      alice,
		Liquidity: uint256.NewInt(9000),
		AmountA:   uint256.NewInt(9000),
		AmountB:   uint256.NewInt(9000),
		Stage:     lock.StageSendToken1,
	}
	if err := state.Lock.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := state.Lock.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	led := ledger.New()
	ops := pendingops.New(nil)
	if err := s.SaveState(state, led, ops); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loadedState := pairstate.New(actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, pairstate.Config{})
	loadedLedger := ledger.New()
	loadedOps := pendingops.New(nil)
	if _, err := s.LoadState(loadedState, loadedLedger, loadedOps); err != nil {
		t.Fatalf("LoadState: %v", err)
	}

	if loadedState.Lock.State() != lock.StatePaused {
		t.Fatalf("lock state = %s, want paused", loadedState.Lock.State())
	}
	loadedCtx, ok := loadedState.Lock.Ctx()
	if !ok {
		t.Fatal("expected a context on a paused lock")
	}
	if loadedCtx.Kind != lock.CtxRemLiq || loadedCtx.User != alice || loadedCtx.Stage != lock.StageSendToken1 {
		t.Errorf("ctx = %+v, want RemLiq for alice at StageSendToken1", loadedCtx)
	}
	if loadedCtx.Liquidity.Cmp(uint256.NewInt(9000)) != 0 {
		t.Errorf("ctx.Liquidity = %s, want 9000", loadedCtx.Liquidity)
	}
}

func TestSaveStatePreservesMigratedFlag(t *testing.T) {
	s := newTestStore(t)

	state := pairstate.New(token0, token1, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	state.SetMigrated()

	led := ledger.New()
	ops := pendingops.New(nil)
	if err := s.SaveState(state, led, ops); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loadedState := pairstate.New(actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, actor.Zero, pairstate.Config{})
	loadedLedger := ledger.New()
	loadedOps := pendingops.New(nil)
	if _, err := s.LoadState(loadedState, loadedLedger, loadedOps); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if !loadedState.IsMigrated() {
		t.Error("expected migrated = true to round-trip")
	}
}
