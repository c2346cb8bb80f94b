// Package pairevents is the pair's event surface: structured notifications
// emitted only on successful terminal transitions. Events are not durable
// state — a listener that needs current reserves or balances must read
// pairstate/ledger directly; replaying past events is never a substitute.
package pairevents

import (
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

// Kind identifies the event variant.
type Kind string

const (
	KindLiquidityAdded        Kind = "LiquidityAdded"
	KindSwap                  Kind = "Swap"
	KindLiquidityRemoved      Kind = "LiquidityRemoved"
	KindTreasuryFeesCollected Kind = "TreasuryFeesCollected"
	KindLiquidityMigrated     Kind = "LiquidityMigrated"
)

// Direction names a swap's leg.
type Direction string

const (
	DirectionToken0ToToken1 Direction = "token0_to_token1"
	DirectionToken1ToToken0 Direction = "token1_to_token0"
)

// Event is a single emitted notification. Only the fields relevant to Kind
// are populated.
type Event struct {
	Kind      Kind
	Timestamp time.Time

	User      actor.ID
	AmountA   *uint256.Int
	AmountB   *uint256.Int
	Liquidity *uint256.Int

	AmountIn  *uint256.Int
	AmountOut *uint256.Int
	Direction Direction

	Fee0 *uint256.Int
	Fee1 *uint256.Int
}

// Handler receives emitted events. Handlers are invoked concurrently and
// must not block the emitting operation.
type Handler func(Event)

// Emitter fans an emitted event out to every registered handler.
type Emitter struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *logging.Logger
}

// New returns an Emitter with no handlers registered.
func New(log *logging.Logger) *Emitter {
	if log == nil {
		log = logging.GetDefault()
	}
	return &Emitter{log: log.Component("pairevents")}
}

// OnEvent registers a handler to receive every future event.
func (e *Emitter) OnEvent(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *Emitter) emit(ev Event) {
	ev.Timestamp = time.Now()

	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.log.Debug("event emitted", "kind", ev.Kind)
	for _, h := range handlers {
		go h(ev)
	}
}

// LiquidityAdded emits a successful add-liquidity notification.
func (e *Emitter) LiquidityAdded(user actor.ID, amountA, amountB, liquidity *uint256.Int) {
	e.emit(Event{Kind: KindLiquidityAdded, User: user, AmountA: amountA, AmountB: amountB, Liquidity: liquidity})
}

// LiquidityRemoved emits a successful remove-liquidity notification.
func (e *Emitter) LiquidityRemoved(user actor.ID, amountA, amountB, liquidity *uint256.Int) {
	e.emit(Event{Kind: KindLiquidityRemoved, User: user, AmountA: amountA, AmountB: amountB, Liquidity: liquidity})
}

// Swap emits a successful swap notification.
func (e *Emitter) Swap(user actor.ID, amountIn, amountOut *uint256.Int, dir Direction) {
	e.emit(Event{Kind: KindSwap, User: user, AmountIn: amountIn, AmountOut: amountOut, Direction: dir})
}

// TreasuryFeesCollected emits a successful treasury payout notification.
func (e *Emitter) TreasuryFeesCollected(treasury actor.ID, fee0, fee1 *uint256.Int) {
	e.emit(Event{Kind: KindTreasuryFeesCollected, User: treasury, Fee0: fee0, Fee1: fee1})
}

// LiquidityMigrated emits a successful one-shot migration notification.
func (e *Emitter) LiquidityMigrated(target actor.ID, amount0, amount1 *uint256.Int) {
	e.emit(Event{Kind: KindLiquidityMigrated, User: target, AmountA: amount0, AmountB: amount1})
}
