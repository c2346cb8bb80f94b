// Package pair implements the pair operations: add-liquidity,
// remove-liquidity, swap-exact-input, swap-exact-output, treasury payout,
// migrate-all-liquidity and recover-paused. Each orchestrates the gateway,
// the LP ledger, and the lock/state machine under the invariants of the
// pair's data model.
package pair

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/gateway"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

// Pair is the single owning root for one pool: its state record, its LP
// ledger, its outbound gateway, and its event surface.
type Pair struct {
	State   *pairstate.State
	Ledger  *ledger.Ledger
	Gateway *gateway.Gateway
	Events  *pairevents.Emitter
	log     *logging.Logger
}

// New constructs a Pair over an already-initialized state, ledger and
// gateway. Construction never fails; collaborators are assumed already
// validated by the caller (the daemon's wiring layer).
func New(state *pairstate.State, led *ledger.Ledger, gw *gateway.Gateway, events *pairevents.Emitter, log *logging.Logger) *Pair {
	if log == nil {
		log = logging.GetDefault()
	}
	if events == nil {
		events = pairevents.New(log)
	}
	return &Pair{
		State:   state,
		Ledger:  led,
		Gateway: gw,
		Events:  events,
		log:     log.Component("pair"),
	}
}

func checkDeadline(deadline int64) error {
	if deadline > 0 && time.Now().Unix() > deadline {
		return pairerr.New(pairerr.KindDeadlineExpired, "deadline %d has passed", deadline)
	}
	return nil
}

func (p *Pair) requireNotMigrated() error {
	if p.State.IsMigrated() {
		return pairerr.New(pairerr.KindPoolMigrated, "pair has been migrated")
	}
	return nil
}

func (p *Pair) requireCaller(caller, expected actor.ID) error {
	if caller != expected {
		return pairerr.New(pairerr.KindUnauthorized, "caller is not authorised for this operation")
	}
	return nil
}

// resolveDirection returns (tokenIn, tokenOut, reserveIn, reserveOut) for
// the given swap direction.
func (p *Pair) resolveDirection(dir pairevents.Direction) (tokenIn, tokenOut actor.ID, reserveIn, reserveOut *uint256.Int) {
	r0, r1 := p.State.Reserves()
	if dir == pairevents.DirectionToken0ToToken1 {
		return p.State.Token0, p.State.Token1, r0, r1
	}
	return p.State.Token1, p.State.Token0, r1, r0
}
