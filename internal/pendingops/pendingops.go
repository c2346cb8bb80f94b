// Package pendingops tracks in-flight token operations issued by the pair
// against its external token collaborators. Each operation is identified by
// a request id and carries a status drawn from a fixed set of phases; a
// Sending* phase transitions to its matching *Completed phase once the
// gateway's reply arrives. An unresolved entry means the operation is still
// in flight. The tracker is bookkeeping only: recover_paused does not read
// it and resumes from the lock's context instead.
package pendingops

import (
	"sync"

	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

// Kind enumerates the phases a tracked operation can be in.
type Kind string

const (
	SendingMsgToLockTokenA        Kind = "SendingMsgToLockTokenA"
	TokenALocked                  Kind = "TokenALocked"
	SendingMsgToLockTokenB        Kind = "SendingMsgToLockTokenB"
	TokenBLocked                  Kind = "TokenBLocked"
	SendingMessageToReturnTokensA Kind = "SendingMessageToReturnTokensA"
	TokensAReturnComplete         Kind = "TokensAReturnComplete"
	SendingMsgToTransferTokenIn   Kind = "SendingMsgToTransferTokenIn"
	TokenInTransferred            Kind = "TokenInTransferred"
	SendingMsgToTransferTokenOut  Kind = "SendingMsgToTransferTokenOut"
	TokenOutTransferred           Kind = "TokenOutTransferred"
	SendingMessageToReturnTokenIn Kind = "SendingMessageToReturnTokenIn"
	TokenInReturnComplete         Kind = "TokenInReturnComplete"
	SendingMsgToUnlockTokenA      Kind = "SendingMsgToUnlockTokenA"
	TokenAUnlocked                Kind = "TokenAUnlocked"
	SendingMsgToUnlockTokenB      Kind = "SendingMsgToUnlockTokenB"
	TokenBUnlocked                Kind = "TokenBUnlocked"
	SendingTreasuryTokenA         Kind = "SendingTreasuryTokenA"
	TreasuryTokenASent            Kind = "TreasuryTokenASent"
	SendingTreasuryTokenB         Kind = "SendingTreasuryTokenB"
	TreasuryTokenBSent            Kind = "TreasuryTokenBSent"
)

// terminalOf maps each Sending* phase to the *Completed phase a reply
// resolves it to.
var terminalOf = map[Kind]Kind{
	SendingMsgToLockTokenA:        TokenALocked,
	SendingMsgToLockTokenB:        TokenBLocked,
	SendingMessageToReturnTokensA: TokensAReturnComplete,
	SendingMsgToTransferTokenIn:   TokenInTransferred,
	SendingMsgToTransferTokenOut:  TokenOutTransferred,
	SendingMessageToReturnTokenIn: TokenInReturnComplete,
	SendingMsgToUnlockTokenA:      TokenAUnlocked,
	SendingMsgToUnlockTokenB:      TokenBUnlocked,
	SendingTreasuryTokenA:         TreasuryTokenASent,
	SendingTreasuryTokenB:         TreasuryTokenBSent,
}

// Status is the current state of a tracked operation. Completed is false
// while the op is still in its Sending* phase; once true, Success reports
// whether the underlying transfer succeeded.
type Status struct {
	Kind      Kind
	Completed bool
	Success   bool
}

// Tracker is a request-id keyed map of operation statuses.
type Tracker struct {
	mu  sync.RWMutex
	ops map[string]Status
	log *logging.Logger
}

// New returns an empty tracker.
func New(log *logging.Logger) *Tracker {
	if log == nil {
		log = logging.GetDefault()
	}
	return &Tracker{
		ops: make(map[string]Status),
		log: log.Component("pendingops"),
	}
}

// Insert begins tracking requestID in the given Sending* phase.
func (t *Tracker) Insert(requestID string, kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[requestID] = Status{Kind: kind}
	t.log.Debug("op tracked", "request_id", requestID, "kind", kind)
}

// Complete resolves requestID's current Sending* phase to its matching
// *Completed phase, recording whether the underlying transfer succeeded.
// It fails if the request id is not tracked or its current kind has no
// terminal phase.
func (t *Tracker) Complete(requestID string, success bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, ok := t.ops[requestID]
	if !ok {
		return pairerr.New(pairerr.KindMessageNotFound, "request %s not tracked", requestID)
	}
	terminal, ok := terminalOf[status.Kind]
	if !ok {
		return pairerr.New(pairerr.KindInvalidMessageStatus, "kind %s has no terminal phase", status.Kind)
	}

	t.ops[requestID] = Status{Kind: terminal, Completed: true, Success: success}
	t.log.Debug("op completed", "request_id", requestID, "kind", terminal, "success", success)
	return nil
}

// Get returns the current status of requestID.
func (t *Tracker) Get(requestID string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.ops[requestID]
	return status, ok
}

// Remove stops tracking requestID, returning its last known status.
func (t *Tracker) Remove(requestID string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.ops[requestID]
	delete(t.ops, requestID)
	return status, ok
}

// InFlight returns the request ids whose operation has not completed.
func (t *Tracker) InFlight() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.ops))
	for id, status := range t.ops {
		if !status.Completed {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a defensive copy of every tracked status, for
// persistence.
func (t *Tracker) Snapshot() map[string]Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Status, len(t.ops))
	for id, status := range t.ops {
		out[id] = status
	}
	return out
}

// Restore replaces the tracker's state with ops, used when recovering from
// persisted storage.
func (t *Tracker) Restore(ops map[string]Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = make(map[string]Status, len(ops))
	for id, status := range ops {
		t.ops[id] = status
	}
}
