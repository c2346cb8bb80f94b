// Package rpc provides a JSON-RPC 2.0 server exposing the pair's
// operations and query surface, plus a WebSocket hub broadcasting its
// event surface.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/klingon-exchange/klingon-pair/internal/pair"
	"github.com/klingon-exchange/klingon-pair/internal/pairerr"
	"github.com/klingon-exchange/klingon-pair/internal/pairstore"
	"github.com/klingon-exchange/klingon-pair/pkg/logging"
)

// Server is a JSON-RPC 2.0 server fronting a single Pair.
type Server struct {
	pair  *pair.Pair
	store *pairstore.Store
	log   *logging.Logger
	wsHub *WSHub

	server   *http.Server
	listener net.Listener

	handlers map[string]Handler
	mu       sync.RWMutex
}

// Handler is a JSON-RPC method handler.
type Handler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Standard error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// PairErrorCode is the JSON-RPC error code used for any pairerr.Error,
// distinguishing a rejected operation from a genuine internal failure.
const PairErrorCode = -32000

// NewServer creates a new JSON-RPC server fronting p, optionally persisting
// state to store after every mutating call. store may be nil, in which case
// the server runs without crash recovery (suitable for tests).
func NewServer(p *pair.Pair, store *pairstore.Store) *Server {
	s := &Server{
		pair:     p,
		store:    store,
		log:      logging.GetDefault().Component("rpc"),
		handlers: make(map[string]Handler),
	}
	s.registerHandlers()
	if p.Events != nil {
		s.wsHub = NewWSHub()
		p.Events.OnEvent(s.broadcastEvent)
	}
	return s
}

func (s *Server) registerHandlers() {
	s.handlers["pair_addLiquidity"] = s.pairAddLiquidity
	s.handlers["pair_removeLiquidity"] = s.pairRemoveLiquidity
	s.handlers["pair_swapExactInput"] = s.pairSwapExactInput
	s.handlers["pair_swapExactOutput"] = s.pairSwapExactOutput
	s.handlers["pair_sendTreasuryFees"] = s.pairSendTreasuryFees
	s.handlers["pair_changeFeeTo"] = s.pairChangeFeeTo
	s.handlers["pair_changeTreasuryId"] = s.pairChangeTreasuryID
	s.handlers["pair_setLock"] = s.pairSetLock
	s.handlers["pair_migrateAllLiquidity"] = s.pairMigrateAllLiquidity
	s.handlers["pair_recoverPaused"] = s.pairRecoverPaused

	s.handlers["pair_getReserves"] = s.pairGetReserves
	s.handlers["pair_getTokens"] = s.pairGetTokens
	s.handlers["pair_getTreasuryInfo"] = s.pairGetTreasuryInfo
	s.handlers["pair_getMigrated"] = s.pairGetMigrated
	s.handlers["pair_getLockState"] = s.pairGetLockState
	s.handlers["pair_getAmountOut"] = s.pairGetAmountOut
	s.handlers["pair_getAmountIn"] = s.pairGetAmountIn
}

// Start starts the RPC server listening on addr.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if s.wsHub != nil {
		go s.wsHub.Run()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /", s.handleRPC)
	mux.HandleFunc("OPTIONS /", s.handleCORS)
	mux.HandleFunc("GET /ws", s.handleWS)

	s.server = &http.Server{
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("RPC server error", "error", err)
		}
	}()

	s.log.Info("RPC server started", "addr", addr, "ws", "ws://"+addr+"/ws")
	return nil
}

// Stop stops the RPC server.
func (s *Server) Stop() error {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

// WSHub returns the WebSocket hub.
func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

// persist saves the pair's full state if a store is configured. Failures are
// logged, not returned: the operation itself has already finished against
// the gateway (committed, rolled back, or left the lock Paused), and a
// persistence failure must not
// retroactively undo that outcome or be reported as if it had.
func (s *Server) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveState(s.pair.State, s.pair.Ledger, s.pair.Gateway.Ops()); err != nil {
		s.log.Error("failed to persist pair state", "error", err)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, ParseError, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, InvalidRequest, "Invalid Request", nil)
		return
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()

	if !ok {
		s.writeError(w, req.ID, MethodNotFound, "Method not found", req.Method)
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		// A failed call may have left the lock Paused; save that too.
		s.persist()
		if pe, ok := err.(*pairerr.Error); ok {
			s.writeError(w, req.ID, PairErrorCode, pe.Error(), string(pe.Kind))
			return
		}
		s.writeError(w, req.ID, InternalError, err.Error(), nil)
		return
	}

	s.writeResult(w, req.ID, result)
}

func (s *Server) writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := Response{JSONRPC: "2.0", Result: result, ID: id}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	resp := Response{JSONRPC: "2.0", Error: &Error{Code: code, Message: message, Data: data}, ID: id}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleCORS(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
