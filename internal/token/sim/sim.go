// Package sim provides an in-memory token.Client test double: a map of
// per-token, per-account balances with optional deterministic failure
// injection, used to exercise the pair's refund and pause/recover paths
// without a real token contract.
package sim

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

type balanceKey struct {
	token   actor.ID
	account actor.ID
}

// FailureInjector decides whether a Transfer or TransferFrom call should
// fail, keyed by the request id the Client derives from its own call
// sequence number. Implementations must
// be deterministic for a fixed request id so test fixtures are
// reproducible.
type FailureInjector interface {
	ShouldFail(requestID string) bool
}

// KeyedFailureInjector fails a request id when the keyed blake2b hash of
// the id, reduced modulo Denominator, falls below Numerator — i.e. it
// injects failures at roughly Numerator/Denominator frequency while
// remaining fully deterministic for a given (key, requestID) pair.
type KeyedFailureInjector struct {
	Key         []byte
	Numerator   uint8
	Denominator uint8
}

// ShouldFail implements FailureInjector.
func (k KeyedFailureInjector) ShouldFail(requestID string) bool {
	if k.Numerator == 0 || k.Denominator == 0 {
		return false
	}
	h, err := blake2b.New256(k.Key)
	if err != nil {
		return false
	}
	h.Write([]byte(requestID))
	sum := h.Sum(nil)
	return sum[0]%k.Denominator < k.Numerator
}

// Client is an in-memory token.Client implementation for tests.
type Client struct {
	mu       sync.Mutex
	balances map[balanceKey]*uint256.Int
	injector FailureInjector
	reqSeq   uint64
}

// New returns an empty sim client with no failure injection.
func New() *Client {
	return &Client{balances: make(map[balanceKey]*uint256.Int)}
}

// WithInjector attaches a deterministic failure injector and returns the
// client for chaining.
func (c *Client) WithInjector(injector FailureInjector) *Client {
	c.injector = injector
	return c
}

// SetBalance seeds account's balance of token, for test setup.
func (c *Client) SetBalance(token, account actor.ID, amount *uint256.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[balanceKey{token, account}] = new(uint256.Int).Set(amount)
}

func (c *Client) balanceLocked(token, account actor.ID) *uint256.Int {
	if bal, ok := c.balances[balanceKey{token, account}]; ok {
		return bal
	}
	return uint256.NewInt(0)
}

// Transfer implements token.Client. The sim credits to without debiting
// any account: the pool's own outbound balance is not tracked, so a
// Transfer is never rejected for insufficient funds.
func (c *Client) Transfer(ctx context.Context, tok actor.ID, to actor.ID, amount *uint256.Int) (bool, error) {
	return c.move(ctx, tok, actor.Zero, to, amount, false)
}

// TransferFrom implements token.Client.
func (c *Client) TransferFrom(ctx context.Context, tok actor.ID, from, to actor.ID, amount *uint256.Int) (bool, error) {
	return c.move(ctx, tok, from, to, amount, true)
}

func (c *Client) move(ctx context.Context, tok actor.ID, from, to actor.ID, amount *uint256.Int, debitFrom bool) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	requestID := c.nextRequestIDLocked()
	if c.injector != nil && c.injector.ShouldFail(requestID) {
		return false, nil
	}

	if debitFrom {
		bal := c.balanceLocked(tok, from)
		if bal.Lt(amount) {
			return false, nil
		}
		c.balances[balanceKey{tok, from}] = new(uint256.Int).Sub(bal, amount)
	}

	toBal := c.balanceLocked(tok, to)
	c.balances[balanceKey{tok, to}] = new(uint256.Int).Add(toBal, amount)
	return true, nil
}

func (c *Client) nextRequestIDLocked() string {
	c.reqSeq++
	return requestIDFromSeq(c.reqSeq)
}

// BalanceOf implements token.Client.
func (c *Client) BalanceOf(ctx context.Context, tok actor.ID, account actor.ID) (*uint256.Int, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return new(uint256.Int).Set(c.balanceLocked(tok, account)), nil
}

func requestIDFromSeq(seq uint64) string {
	b := uint256.NewInt(seq).Bytes32()
	return actor.FromBytes(b[:]).String()
}
