package rpc

import (
	"fmt"

	"github.com/holiman/uint256"
)

// parseU256 parses a decimal string amount from a JSON-RPC param. An empty
// string is treated as zero, matching how an omitted optional minimum
// (amountAMin, amountOutMin, ...) is expressed over the wire.
func parseU256(s string) (*uint256.Int, error) {
	v := uint256.NewInt(0)
	if s == "" {
		return v, nil
	}
	if _, err := v.SetFromDecimal(s); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}
