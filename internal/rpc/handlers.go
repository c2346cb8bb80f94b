package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
)

// AddLiquidityParams is the parameters for pair_addLiquidity.
type AddLiquidityParams struct {
	User           actor.ID `json:"user"`
	AmountADesired string   `json:"amount_a_desired"`
	AmountBDesired string   `json:"amount_b_desired"`
	AmountAMin     string   `json:"amount_a_min"`
	AmountBMin     string   `json:"amount_b_min"`
	Deadline       int64    `json:"deadline"`
}

// LiquidityResult reports the liquidity minted or burned by a call.
type LiquidityResult struct {
	Liquidity string `json:"liquidity"`
}

func (s *Server) pairAddLiquidity(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p AddLiquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	amountADesired, err := parseU256(p.AmountADesired)
	if err != nil {
		return nil, err
	}
	amountBDesired, err := parseU256(p.AmountBDesired)
	if err != nil {
		return nil, err
	}
	amountAMin, err := parseU256(p.AmountAMin)
	if err != nil {
		return nil, err
	}
	amountBMin, err := parseU256(p.AmountBMin)
	if err != nil {
		return nil, err
	}

	liquidity, err := s.pair.AddLiquidity(ctx, p.User, amountADesired, amountBDesired, amountAMin, amountBMin, p.Deadline)
	if err != nil {
		return nil, err
	}
	s.persist()
	return LiquidityResult{Liquidity: liquidity.Dec()}, nil
}

// RemoveLiquidityParams is the parameters for pair_removeLiquidity.
type RemoveLiquidityParams struct {
	User       actor.ID `json:"user"`
	Liquidity  string   `json:"liquidity"`
	AmountAMin string   `json:"amount_a_min"`
	AmountBMin string   `json:"amount_b_min"`
	Deadline   int64    `json:"deadline"`
}

// AmountsResult reports a pair of token amounts returned by a call.
type AmountsResult struct {
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
}

func (s *Server) pairRemoveLiquidity(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p RemoveLiquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	liquidity, err := parseU256(p.Liquidity)
	if err != nil {
		return nil, err
	}
	amountAMin, err := parseU256(p.AmountAMin)
	if err != nil {
		return nil, err
	}
	amountBMin, err := parseU256(p.AmountBMin)
	if err != nil {
		return nil, err
	}

	amountA, amountB, err := s.pair.RemoveLiquidity(ctx, p.User, liquidity, amountAMin, amountBMin, p.Deadline)
	if err != nil {
		return nil, err
	}
	s.persist()
	return AmountsResult{AmountA: amountA.Dec(), AmountB: amountB.Dec()}, nil
}

// SwapExactInputParams is the parameters for pair_swapExactInput.
type SwapExactInputParams struct {
	User         actor.ID          `json:"user"`
	AmountIn     string            `json:"amount_in"`
	AmountOutMin string            `json:"amount_out_min"`
	Direction    pairevents.Direction `json:"direction"`
	Deadline     int64             `json:"deadline"`
}

// AmountResult reports a single amount returned by a call.
type AmountResult struct {
	Amount string `json:"amount"`
}

func (s *Server) pairSwapExactInput(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p SwapExactInputParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	amountIn, err := parseU256(p.AmountIn)
	if err != nil {
		return nil, err
	}
	amountOutMin, err := parseU256(p.AmountOutMin)
	if err != nil {
		return nil, err
	}

	amountOut, err := s.pair.SwapExactInput(ctx, p.User, amountIn, amountOutMin, p.Direction, p.Deadline)
	if err != nil {
		return nil, err
	}
	s.persist()
	return AmountResult{Amount: amountOut.Dec()}, nil
}

// SwapExactOutputParams is the parameters for pair_swapExactOutput.
type SwapExactOutputParams struct {
	User        actor.ID          `json:"user"`
	AmountOut   string            `json:"amount_out"`
	AmountInMax string            `json:"amount_in_max"`
	Direction   pairevents.Direction `json:"direction"`
	Deadline    int64             `json:"deadline"`
}

func (s *Server) pairSwapExactOutput(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p SwapExactOutputParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	amountOut, err := parseU256(p.AmountOut)
	if err != nil {
		return nil, err
	}
	amountInMax, err := parseU256(p.AmountInMax)
	if err != nil {
		return nil, err
	}

	amountIn, err := s.pair.SwapExactOutput(ctx, p.User, amountOut, amountInMax, p.Direction, p.Deadline)
	if err != nil {
		return nil, err
	}
	s.persist()
	return AmountResult{Amount: amountIn.Dec()}, nil
}

// CallerParams is the parameters for any admin/factory-gated call that takes
// no other argument.
type CallerParams struct {
	Caller actor.ID `json:"caller"`
}

func (s *Server) pairSendTreasuryFees(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p CallerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.SendTreasuryFees(ctx, p.Caller); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}

// ChangeFeeToParams is the parameters for pair_changeFeeTo.
type ChangeFeeToParams struct {
	Caller    actor.ID `json:"caller"`
	NewFeeTo  actor.ID `json:"new_fee_to"`
}

func (s *Server) pairChangeFeeTo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p ChangeFeeToParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.ChangeFeeTo(p.Caller, p.NewFeeTo); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}

// ChangeTreasuryIDParams is the parameters for pair_changeTreasuryId.
type ChangeTreasuryIDParams struct {
	Caller       actor.ID `json:"caller"`
	NewTreasury  actor.ID `json:"new_treasury"`
}

func (s *Server) pairChangeTreasuryID(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p ChangeTreasuryIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.ChangeTreasuryID(p.Caller, p.NewTreasury); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}

// SetLockParams is the parameters for pair_setLock.
type SetLockParams struct {
	Caller actor.ID `json:"caller"`
	Paused bool     `json:"paused"`
}

func (s *Server) pairSetLock(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p SetLockParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.SetLock(p.Caller, p.Paused); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}

// MigrateAllLiquidityParams is the parameters for pair_migrateAllLiquidity.
type MigrateAllLiquidityParams struct {
	Caller actor.ID `json:"caller"`
	Target actor.ID `json:"target"`
}

func (s *Server) pairMigrateAllLiquidity(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p MigrateAllLiquidityParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.MigrateAllLiquidity(ctx, p.Caller, p.Target); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}

func (s *Server) pairRecoverPaused(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p CallerParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if err := s.pair.RecoverPaused(ctx, p.Caller); err != nil {
		return nil, err
	}
	s.persist()
	return struct{}{}, nil
}
