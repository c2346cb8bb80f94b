package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/gateway"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/pair"
	"github.com/klingon-exchange/klingon-pair/internal/pairevents"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/internal/token/sim"
)

var (
	token0Addr = actor.MustFromHex("0x0000000000000000000000000000000000000001")
	token1Addr = actor.MustFromHex("0x0000000000000000000000000000000000000002")
	admin      = actor.MustFromHex("0x0000000000000000000000000000000000000003")
	factory    = actor.MustFromHex("0x0000000000000000000000000000000000000004")
	alice      = actor.MustFromHex("0x0000000000000000000000000000000000000005")
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	client := sim.New()
	client.SetBalance(token0Addr, alice, uint256.NewInt(1_000_000))
	client.SetBalance(token1Addr, alice, uint256.NewInt(1_000_000))

	gw := gateway.New(client, time.Second, nil)
	state := pairstate.New(token0Addr, token1Addr, actor.Zero, actor.Zero, admin, factory, pairstate.Config{ReplyTimeout: time.Second})
	led := ledger.New()
	events := pairevents.New(nil)
	p := pair.New(state, led, gw, events, nil)

	s := NewServer(p, nil)
	ts := httptest.NewServer(http.HandlerFunc(s.handleRPC))
	t.Cleanup(ts.Close)
	return s, ts
}

func rpcCall(t *testing.T, ts *httptest.Server, method string, params interface{}) Response {
	t.Helper()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{JSONRPC: "2.0", Method: method, Params: paramsJSON, ID: 1}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	resp, err := ts.Client().Post(ts.URL, "application/json", bytes.NewReader(reqJSON))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	var rpcResp Response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rpcResp
}

func TestAddLiquidityThenGetReserves(t *testing.T) {
	_, ts := newTestServer(t)

	resp := rpcCall(t, ts, "pair_addLiquidity", AddLiquidityParams{
		User:           alice,
		AmountADesired: "10000",
		AmountBDesired: "10000",
	})
	if resp.Error != nil {
		t.Fatalf("pair_addLiquidity error: %+v", resp.Error)
	}

	reservesResp := rpcCall(t, ts, "pair_getReserves", struct{}{})
	if reservesResp.Error != nil {
		t.Fatalf("pair_getReserves error: %+v", reservesResp.Error)
	}

	resultJSON, err := json.Marshal(reservesResp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var reserves ReservesResult
	if err := json.Unmarshal(resultJSON, &reserves); err != nil {
		t.Fatalf("unmarshal reserves: %v", err)
	}
	if reserves.Reserve0 != "10000" || reserves.Reserve1 != "10000" {
		t.Errorf("reserves = %+v, want (10000, 10000)", reserves)
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp := rpcCall(t, ts, "pair_doesNotExist", struct{}{})
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Fatalf("error = %+v, want MethodNotFound", resp.Error)
	}
}

func TestRejectedOperationSurfacesPairErrorCode(t *testing.T) {
	_, ts := newTestServer(t)

	resp := rpcCall(t, ts, "pair_addLiquidity", AddLiquidityParams{
		User:           alice,
		AmountADesired: "0",
		AmountBDesired: "10000",
	})
	if resp.Error == nil || resp.Error.Code != PairErrorCode {
		t.Fatalf("error = %+v, want PairErrorCode", resp.Error)
	}
}
