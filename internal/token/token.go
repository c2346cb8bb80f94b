// Package token defines the external token interface the pair consumes.
// Token contracts themselves are out of scope; this package only specifies
// the {transfer, transfer_from, balance_of} surface the pair depends on and
// the async call/reply semantics (bounded by the caller's context) that a
// real implementation would provide over message-passing transport.
package token

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

// Client is the collaborator surface a pair requires from each token
// contract it holds reserves in. Every call blocks until the reply arrives
// or ctx is cancelled; callers are expected to bound ctx with the
// configured reply timeout.
type Client interface {
	// Transfer moves amount of token from the pool's own balance to to.
	// It reports false (not an error) when the token contract itself
	// rejects the transfer.
	Transfer(ctx context.Context, token actor.ID, to actor.ID, amount *uint256.Int) (bool, error)

	// TransferFrom moves amount of token from from to the pool, assuming a
	// prior approval. It reports false (not an error) when the token
	// contract rejects the transfer.
	TransferFrom(ctx context.Context, token actor.ID, from, to actor.ID, amount *uint256.Int) (bool, error)

	// BalanceOf returns token's balance held by account.
	BalanceOf(ctx context.Context, token actor.ID, account actor.ID) (*uint256.Int, error)
}
