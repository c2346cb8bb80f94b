// Package actor provides the identity type shared by every collaborator the
// pair talks about: users, tokens, the factory, the treasury, the admin.
package actor

import (
	"strings"

	"github.com/klingon-exchange/klingon-pair/pkg/helpers"
)

// IDLen is the byte width of an identity, matching a 20-byte account id.
const IDLen = 20

// ID identifies an actor (a user, a token contract, the factory, ...).
// The zero value is the canonical "zero identity" used for the burned
// MINIMUM_LIQUIDITY recipient and for a disabled fee_to/treasury.
type ID [IDLen]byte

// Zero is the canonical zero identity.
var Zero = ID{}

// IsZero reports whether id is the zero identity.
func (id ID) IsZero() bool {
	return id == Zero
}

// Less reports whether id sorts strictly before other, used to enforce the
// canonical token0 < token1 ordering invariant.
func (id ID) Less(other ID) bool {
	return helpers.CompareBytes(id[:], other[:]) < 0
}

// String renders the identity as a 0x-prefixed hex string.
func (id ID) String() string {
	return helpers.BytesToHex(id[:])
}

// FromHex parses a 0x-prefixed (or bare) hex string into an ID.
func FromHex(s string) (ID, error) {
	b, err := helpers.HexToBytes(strings.TrimSpace(s))
	if err != nil {
		return ID{}, err
	}
	return FromBytes(b), nil
}

// MarshalText implements encoding.TextMarshaler for YAML/JSON config fields.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML/JSON config fields.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// FromBytes builds an ID from a byte slice, left-padding or truncating to
// IDLen the same way hex.DecodeString-derived slices are normalized.
func FromBytes(b []byte) ID {
	var id ID
	if len(b) >= IDLen {
		copy(id[:], b[len(b)-IDLen:])
		return id
	}
	copy(id[IDLen-len(b):], b)
	return id
}

// Bytes returns the raw identity bytes.
func (id ID) Bytes() []byte {
	return id[:]
}

// MustFromHex parses a 0x-prefixed hex string into an ID, panicking on
// malformed input. Intended for well-known ids built from constants.
func MustFromHex(s string) ID {
	id, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return id
}
