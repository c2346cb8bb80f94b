// Package gateway is the pair's sole path to its external token
// collaborators. It wraps a token.Client with a bounded reply timeout and
// records every outbound call in an in-memory pendingops.Tracker as
// bookkeeping; recover_paused works from the lock's context, not from the
// tracker.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
	"github.com/klingon-exchange/klingon-pair/internal/token"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

// Gateway issues token operations against a token.Client, bounding each
// call by ReplyTimeout and tracking its lifecycle in Ops.
type Gateway struct {
	client       token.Client
	ops          *pendingops.Tracker
	replyTimeout time.Duration
	log          *logging.Logger
}

// New returns a Gateway that calls through client, bounding every op by
// replyTimeout.
func New(client token.Client, replyTimeout time.Duration, log *logging.Logger) *Gateway {
	if log == nil {
		log = logging.GetDefault()
	}
	return &Gateway{
		client:       client,
		ops:          pendingops.New(log),
		replyTimeout: replyTimeout,
		log:          log.Component("gateway"),
	}
}

// Ops exposes the underlying tracker, for recovery and persistence.
func (g *Gateway) Ops() *pendingops.Tracker {
	return g.ops
}

// TransferFrom issues a transfer_from call tracked under sendingKind,
// bounded by the gateway's reply timeout. It returns the generated request
// id alongside the outcome so the caller can correlate log lines and
// persisted pendingops entries.
func (g *Gateway) TransferFrom(ctx context.Context, sendingKind pendingops.Kind, tok actor.ID, from, to actor.ID, amount *uint256.Int) (requestID string, ok bool, err error) {
	requestID = uuid.New().String()
	log := g.log.WithRequestID(requestID)

	g.ops.Insert(requestID, sendingKind)
	log.Debug("transfer_from issued", "token", tok, "from", from, "to", to, "amount", amount)

	callCtx, cancel := context.WithTimeout(ctx, g.replyTimeout)
	defer cancel()

	ok, err = g.client.TransferFrom(callCtx, tok, from, to, amount)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_ = g.ops.Complete(requestID, false)
			log.Warn("transfer_from timed out")
			return requestID, false, pairerr.New(pairerr.KindReplyTimeout, "transfer_from reply timeout")
		}
		_ = g.ops.Complete(requestID, false)
		log.Warn("transfer_from reply failure", "error", err)
		return requestID, false, pairerr.New(pairerr.KindReplyFailure, "transfer_from: %v", err)
	}

	if completeErr := g.ops.Complete(requestID, ok); completeErr != nil {
		log.Warn("failed to record op completion", "error", completeErr)
	}
	if !ok {
		log.Debug("transfer_from rejected by token contract")
	}
	return requestID, ok, nil
}

// Transfer issues a transfer call tracked under sendingKind, bounded by the
// gateway's reply timeout.
func (g *Gateway) Transfer(ctx context.Context, sendingKind pendingops.Kind, tok actor.ID, to actor.ID, amount *uint256.Int) (requestID string, ok bool, err error) {
	requestID = uuid.New().String()
	log := g.log.WithRequestID(requestID)

	g.ops.Insert(requestID, sendingKind)
	log.Debug("transfer issued", "token", tok, "to", to, "amount", amount)

	callCtx, cancel := context.WithTimeout(ctx, g.replyTimeout)
	defer cancel()

	ok, err = g.client.Transfer(callCtx, tok, to, amount)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			_ = g.ops.Complete(requestID, false)
			log.Warn("transfer timed out")
			return requestID, false, pairerr.New(pairerr.KindReplyTimeout, "transfer reply timeout")
		}
		_ = g.ops.Complete(requestID, false)
		log.Warn("transfer reply failure", "error", err)
		return requestID, false, pairerr.New(pairerr.KindReplyFailure, "transfer: %v", err)
	}

	if completeErr := g.ops.Complete(requestID, ok); completeErr != nil {
		log.Warn("failed to record op completion", "error", completeErr)
	}
	if !ok {
		log.Debug("transfer rejected by token contract")
	}
	return requestID, ok, nil
}

// BalanceOf queries a token balance, bounded by the gateway's reply timeout.
// It is not tracked in pendingops since it is a read and has no
// refund/recovery semantics.
func (g *Gateway) BalanceOf(ctx context.Context, tok actor.ID, account actor.ID) (*uint256.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.replyTimeout)
	defer cancel()

	bal, err := g.client.BalanceOf(callCtx, tok, account)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pairerr.New(pairerr.KindReplyTimeout, "balance_of reply timeout")
		}
		return nil, pairerr.New(pairerr.KindUnableToDecode, "balance_of: %v", err)
	}
	return bal, nil
}
