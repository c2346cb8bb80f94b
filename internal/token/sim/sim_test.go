package sim

import (
	"context"
	"testing"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/token"
)

var (
	tokenA = actor.MustFromHex("0x00000000000000000000000000000000000aaa")
	alice  = actor.MustFromHex("0x0000000000000000000000000000000000001")
	pool   = actor.MustFromHex("0x00000000000000000000000000000000000bbb")
)

func TestClientImplementsInterface(t *testing.T) {
	var _ token.Client = New()
}

func TestTransferFromMovesBalance(t *testing.T) {
	c := New()
	c.SetBalance(tokenA, alice, uint256.NewInt(1000))

	ok, err := c.TransferFrom(context.Background(), tokenA, alice, pool, uint256.NewInt(300))
	if err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if !ok {
		t.Fatal("expected successful transfer")
	}

	aliceBal, _ := c.BalanceOf(context.Background(), tokenA, alice)
	poolBal, _ := c.BalanceOf(context.Background(), tokenA, pool)
	if aliceBal.Uint64() != 700 {
		t.Errorf("alice balance = %d, want 700", aliceBal.Uint64())
	}
	if poolBal.Uint64() != 300 {
		t.Errorf("pool balance = %d, want 300", poolBal.Uint64())
	}
}

func TestTransferFromInsufficientBalanceReturnsFalse(t *testing.T) {
	c := New()
	c.SetBalance(tokenA, alice, uint256.NewInt(100))

	ok, err := c.TransferFrom(context.Background(), tokenA, alice, pool, uint256.NewInt(300))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected transfer to report false on insufficient balance")
	}
}

func TestTransferCreditsRecipient(t *testing.T) {
	c := New()
	c.SetBalance(tokenA, pool, uint256.NewInt(500))

	ok, err := c.Transfer(context.Background(), tokenA, alice, uint256.NewInt(500))
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !ok {
		t.Fatal("expected successful transfer")
	}
	aliceBal, _ := c.BalanceOf(context.Background(), tokenA, alice)
	if aliceBal.Uint64() != 500 {
		t.Errorf("alice balance = %d, want 500", aliceBal.Uint64())
	}
}

func TestContextCancellationFailsCall(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Transfer(ctx, tokenA, alice, uint256.NewInt(1)); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestKeyedFailureInjectorAlwaysFailsAtFullRatio(t *testing.T) {
	injector := KeyedFailureInjector{Key: []byte("fixture"), Numerator: 255, Denominator: 255}

	c := New().WithInjector(injector)
	c.SetBalance(tokenA, pool, uint256.NewInt(1000))

	ok, err := c.Transfer(context.Background(), tokenA, alice, uint256.NewInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected injector with full numerator/denominator to always fail")
	}
}

func TestKeyedFailureInjectorNeverFailsAtZeroNumerator(t *testing.T) {
	injector := KeyedFailureInjector{Key: []byte("fixture"), Numerator: 0, Denominator: 255}
	c := New().WithInjector(injector)
	c.SetBalance(tokenA, pool, uint256.NewInt(1000))

	ok, err := c.Transfer(context.Background(), tokenA, alice, uint256.NewInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected zero-numerator injector to never fail")
	}
}
