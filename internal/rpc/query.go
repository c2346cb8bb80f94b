package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
)

// ReservesResult reports the pair's current reserves.
type ReservesResult struct {
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
}

func (s *Server) pairGetReserves(ctx context.Context, params json.RawMessage) (interface{}, error) {
	r0, r1 := s.pair.GetReserves()
	return ReservesResult{Reserve0: r0.Dec(), Reserve1: r1.Dec()}, nil
}

// TokensResult reports the pair's two token identities.
type TokensResult struct {
	Token0 actor.ID `json:"token0"`
	Token1 actor.ID `json:"token1"`
}

func (s *Server) pairGetTokens(ctx context.Context, params json.RawMessage) (interface{}, error) {
	t0, t1 := s.pair.GetTokens()
	return TokensResult{Token0: t0, Token1: t1}, nil
}

// TreasuryInfoResult reports the treasury identity and its accrued fees.
type TreasuryInfoResult struct {
	Treasury actor.ID `json:"treasury"`
	Fee0     string   `json:"fee0"`
	Fee1     string   `json:"fee1"`
}

func (s *Server) pairGetTreasuryInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	treasury, fee0, fee1 := s.pair.GetTreasuryInfo()
	return TreasuryInfoResult{Treasury: treasury, Fee0: fee0.Dec(), Fee1: fee1.Dec()}, nil
}

// MigratedResult reports whether the pair has completed its one-shot
// migration.
type MigratedResult struct {
	Migrated bool `json:"migrated"`
}

func (s *Server) pairGetMigrated(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return MigratedResult{Migrated: s.pair.Migrated()}, nil
}

// LockStateResult reports the pair's lock state.
type LockStateResult struct {
	State lock.State `json:"state"`
}

func (s *Server) pairGetLockState(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return LockStateResult{State: s.pair.LockState()}, nil
}

// AmountOutParams is the parameters for pair_getAmountOut.
type AmountOutParams struct {
	AmountIn  string               `json:"amount_in"`
	Direction pairevents.Direction `json:"direction"`
}

func (s *Server) pairGetAmountOut(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AmountOutParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	amountIn, err := parseU256(p.AmountIn)
	if err != nil {
		return nil, err
	}
	amountOut, err := s.pair.GetAmountOut(amountIn, p.Direction)
	if err != nil {
		return nil, err
	}
	return AmountResult{Amount: amountOut.Dec()}, nil
}

// AmountInParams is the parameters for pair_getAmountIn.
type AmountInParams struct {
	AmountOut string               `json:"amount_out"`
	Direction pairevents.Direction `json:"direction"`
}

func (s *Server) pairGetAmountIn(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AmountInParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	amountOut, err := parseU256(p.AmountOut)
	if err != nil {
		return nil, err
	}
	amountIn, err := s.pair.GetAmountIn(amountOut, p.Direction)
	if err != nil {
		return nil, err
	}
	return AmountResult{Amount: amountIn.Dec()}, nil
}
