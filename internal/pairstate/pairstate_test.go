package pairstate

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

func newTestState() *State {
	token0 := actor.MustFromHex("0x0000000000000000000000000000000000000001")
	token1 := actor.MustFromHex("0x0000000000000000000000000000000000000002")
	admin := actor.MustFromHex("0x0000000000000000000000000000000000000003")
	return New(token0, token1, actor.Zero, actor.Zero, admin, admin, Config{})
}

func TestNewStateStartsEmpty(t *testing.T) {
	s := newTestState()
	r0, r1 := s.Reserves()
	if !r0.IsZero() || !r1.IsZero() {
		t.Errorf("expected zero reserves, got %s/%s", r0, r1)
	}
	if s.IsMigrated() {
		t.Error("expected fresh state to not be migrated")
	}
	if s.Lock == nil {
		t.Fatal("expected lock to be initialized")
	}
}

func TestSetReserves(t *testing.T) {
	s := newTestState()
	s.SetReserves(uint256.NewInt(100), uint256.NewInt(200))

	r0, r1 := s.Reserves()
	if r0.Uint64() != 100 || r1.Uint64() != 200 {
		t.Errorf("reserves = %s/%s, want 100/200", r0, r1)
	}
}

func TestAddAndResetTreasuryFees(t *testing.T) {
	s := newTestState()
	s.AddTreasuryFees(uint256.NewInt(5), uint256.NewInt(10))
	s.AddTreasuryFees(uint256.NewInt(5), uint256.NewInt(10))

	f0, f1 := s.TreasuryFees()
	if f0.Uint64() != 10 || f1.Uint64() != 20 {
		t.Errorf("fees = %s/%s, want 10/20", f0, f1)
	}

	s.ResetTreasuryFees()
	f0, f1 = s.TreasuryFees()
	if !f0.IsZero() || !f1.IsZero() {
		t.Error("expected fees to be zeroed after reset")
	}
}

func TestSetMigratedIsOneWay(t *testing.T) {
	s := newTestState()
	s.SetMigrated()
	if !s.IsMigrated() {
		t.Error("expected migrated to be true")
	}
}

func TestReservesAreDefensiveCopies(t *testing.T) {
	s := newTestState()
	s.SetReserves(uint256.NewInt(50), uint256.NewInt(60))

	r0, _ := s.Reserves()
	r0.Add(r0, uint256.NewInt(1000)) // mutate the returned copy

	r0again, _ := s.Reserves()
	if r0again.Uint64() != 50 {
		t.Error("mutating a returned reserve leaked into internal state")
	}
}
