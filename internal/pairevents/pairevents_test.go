package pairevents

import (
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

func TestLiquidityAddedDispatchesToHandlers(t *testing.T) {
	e := New(nil)
	var mu sync.Mutex
	var got Event
	done := make(chan struct{})

	e.OnEvent(func(ev Event) {
		mu.Lock()
		got = ev
		mu.Unlock()
		close(done)
	})

	user := actor.MustFromHex("0x0000000000000000000000000000000000000001")
	e.LiquidityAdded(user, uint256.NewInt(100), uint256.NewInt(200), uint256.NewInt(50))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.Kind != KindLiquidityAdded {
		t.Errorf("Kind = %s, want %s", got.Kind, KindLiquidityAdded)
	}
	if got.User != user {
		t.Error("unexpected user in event")
	}
	if got.Liquidity.Uint64() != 50 {
		t.Errorf("Liquidity = %d, want 50", got.Liquidity.Uint64())
	}
}

func TestMultipleHandlersAllReceiveEvent(t *testing.T) {
	e := New(nil)
	var wg sync.WaitGroup
	wg.Add(2)

	e.OnEvent(func(ev Event) { wg.Done() })
	e.OnEvent(func(ev Event) { wg.Done() })

	e.Swap(actor.Zero, uint256.NewInt(1), uint256.NewInt(2), DirectionToken0ToToken1)

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(time.Second):
		t.Fatal("not all handlers were invoked")
	}
}
