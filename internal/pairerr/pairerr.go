// Package pairerr defines the abstract error kinds the pair engine can
// surface, so callers (RPC handlers, tests) can branch on a stable kind
// instead of string-matching an error message.
package pairerr

import "fmt"

// Kind enumerates the error kinds named in the pair specification.
type Kind string

const (
	KindInsufficientLiquidity        Kind = "InsufficientLiquidity"
	KindInsufficientLiquidityMinted  Kind = "InsufficientLiquidityMinted"
	KindInsufficientAmount           Kind = "InsufficientAmount"
	KindInsufficientAmountA          Kind = "InsufficientAmountA"
	KindInsufficientAmountB          Kind = "InsufficientAmountB"
	KindOverflow                     Kind = "Overflow"
	KindDeadlineExpired              Kind = "DeadlineExpired"
	KindExcessiveInputAmount         Kind = "ExcessiveInputAmount"
	KindInvariantViolation           Kind = "InvariantViolation"
	KindSendFailure                  Kind = "SendFailure"
	KindReplyTimeout                 Kind = "ReplyTimeout"
	KindReplyFailure                 Kind = "ReplyFailure"
	KindUnableToDecode               Kind = "UnableToDecode"
	KindTokenTransferFailed          Kind = "TokenTransferFailed"
	KindAnotherTxInProgress          Kind = "AnotherTxInProgress"
	KindMessageNotFound              Kind = "MessageNotFound"
	KindInvalidMessageStatus         Kind = "InvalidMessageStatus"
	KindZeroLiquidity                Kind = "ZeroLiquidity"
	KindUnauthorized                 Kind = "Unauthorized"
	KindNoTreasuryFees               Kind = "NoTreasuryFees"
	KindNotTreasuryID                Kind = "NotTreasuryId"
	KindNoLiquidityToMigrate         Kind = "NoLiquidityToMigrate"
	KindPoolMigrated                 Kind = "PoolMigrated"
	KindNotEnoughAttachedGas         Kind = "NotEnoughAttachedGas"
)

// Error is a pair-engine error carrying a stable Kind alongside a
// human-readable message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds an *Error for the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Is reports whether err carries the given Kind, so callers can do
// `if pairerr.Is(err, pairerr.KindPoolMigrated)`.
func Is(err error, kind Kind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}
