package pair

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/gateway"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/internal/token/sim"
)

var (
	token0Addr = actor.MustFromHex("0x1000000000000000000000000000000000000a")
	token1Addr = actor.MustFromHex("0x1000000000000000000000000000000000000b")
	feeToAddr  = actor.MustFromHex("0x2000000000000000000000000000000000000a")
	treasury   = actor.MustFromHex("0x2000000000000000000000000000000000000b")
	admin      = actor.MustFromHex("0x2000000000000000000000000000000000000c")
	factory    = actor.MustFromHex("0x2000000000000000000000000000000000000d")
	alice      = actor.MustFromHex("0x3000000000000000000000000000000000000a")
	bob        = actor.MustFromHex("0x3000000000000000000000000000000000000b")
)

type fixture struct {
	pair   *Pair
	client *sim.Client
}

// newFixture builds a Pair with no protocol fee and no treasury surcharge
// configured, and seeds alice with a balance on both tokens.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := sim.New()
	client.SetBalance(token0Addr, alice, uint256.NewInt(1_000_000))
	client.SetBalance(token1Addr, alice, uint256.NewInt(1_000_000))

	gw := gateway.New(client, time.Second, nil)
	state := pairstate.New(token0Addr, token1Addr, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	led := ledger.New()
	events := pairevents.New(nil)

	return &fixture{pair: New(state, led, gw, events, nil), client: client}
}

// newFixtureWithFees is like newFixture but with a fee_to and a treasury
// configured, so protocol-fee minting and the treasury surcharge are live.
func newFixtureWithFees(t *testing.T) *fixture {
	t.Helper()
	client := sim.New()
	client.SetBalance(token0Addr, alice, uint256.NewInt(1_000_000))
	client.SetBalance(token1Addr, alice, uint256.NewInt(1_000_000))

	gw := gateway.New(client, time.Second, nil)
	state := pairstate.New(token0Addr, token1Addr, feeToAddr, treasury, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	led := ledger.New()
	events := pairevents.New(nil)

	return &fixture{pair: New(state, led, gw, events, nil), client: client}
}

func (f *fixture) seedLiquidity(t *testing.T, amountA, amountB *uint256.Int) *uint256.Int {
	t.Helper()
	lp, err := f.pair.AddLiquidity(context.Background(), alice, amountA, amountB, uint256.NewInt(0), uint256.NewInt(0), 0)
	if err != nil {
		t.Fatalf("seedLiquidity: %v", err)
	}
	return lp
}
