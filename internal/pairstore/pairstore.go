// Package pairstore persists a pair's mutable state to SQLite so a crashed
// or restarted node can recover exactly where it left off: reserves, the
// LP ledger, the lock's context (so a Paused operation is not forgotten),
// and the pendingops tracker's record of issued gateway calls.
package pairstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/holiman/uint256"
	_ "github.com/mattn/go-sqlite3"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
	"github.com/klingon-exchange/klingon-pair/internal/ledger"
	"github.com/klingon-exchange/klingon-pair/internal/lock"
	"github.com/klingon-exchange/klingon-pair/internal/pairstate"
	"github.com/klingon-exchange/klingon-pair/internal/pendingops"
)

// Config holds the store's on-disk location.
type Config struct {
	DataDir string
}

// Store wraps a single SQLite database holding one pair's persisted state.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (creating if necessary) the pair database under cfg.DataDir.
func New(cfg *Config) (*Store, error) {
	dataDir := expandPath(cfg.DataDir)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pair.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pair_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token0 TEXT NOT NULL,
		token1 TEXT NOT NULL,
		fee_to TEXT NOT NULL,
		treasury TEXT NOT NULL,
		admin TEXT NOT NULL,
		factory TEXT NOT NULL,
		reserve0 TEXT NOT NULL,
		reserve1 TEXT NOT NULL,
		k_last TEXT NOT NULL,
		accrued_treasury_fee0 TEXT NOT NULL,
		accrued_treasury_fee1 TEXT NOT NULL,
		migrated INTEGER NOT NULL DEFAULT 0,
		lock_state TEXT NOT NULL,
		lock_ctx TEXT NOT NULL DEFAULT '',
		paused_by_admin INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS ledger_balances (
		account TEXT PRIMARY KEY,
		balance TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_supply (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_supply TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pending_ops (
		request_id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		completed INTEGER NOT NULL,
		success INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ctxRecord mirrors lock.Ctx with string-encodable fields, for JSON storage
// in the lock_ctx column.
type ctxRecord struct {
	Kind      lock.CtxKind `json:"kind"`
	User      string       `json:"user,omitempty"`
	Token     string       `json:"token,omitempty"`
	Amount    string       `json:"amount,omitempty"`
	Liquidity string       `json:"liquidity,omitempty"`
	AmountA   string       `json:"amount_a,omitempty"`
	AmountB   string       `json:"amount_b,omitempty"`
	Stage     lock.Stage   `json:"stage,omitempty"`
	Treasury  string       `json:"treasury,omitempty"`
	Fee0      string       `json:"fee0,omitempty"`
	Fee1      string       `json:"fee1,omitempty"`
	Target    string       `json:"target,omitempty"`
	Amount0   string       `json:"amount0,omitempty"`
	Amount1   string       `json:"amount1,omitempty"`
}

func idString(id actor.ID) string {
	if id.IsZero() {
		return ""
	}
	return id.String()
}

func idFromString(s string) actor.ID {
	if s == "" {
		return actor.Zero
	}
	id, err := actor.FromHex(s)
	if err != nil {
		return actor.Zero
	}
	return id
}

func u256String(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

func u256FromString(s string) *uint256.Int {
	v := uint256.NewInt(0)
	if s == "" {
		return v
	}
	if _, err := v.SetFromDecimal(s); err != nil {
		return uint256.NewInt(0)
	}
	return v
}

func marshalCtx(c lock.Ctx) (string, error) {
	rec := ctxRecord{
		Kind:      c.Kind,
		User:      idString(c.User),
		Token:     idString(c.Token),
		Amount:    u256String(c.Amount),
		Liquidity: u256String(c.Liquidity),
		AmountA:   u256String(c.AmountA),
		AmountB:   u256String(c.AmountB),
		Stage:     c.Stage,
		Treasury:  idString(c.Treasury),
		Fee0:      u256String(c.Fee0),
		Fee1:      u256String(c.Fee1),
		Target:    idString(c.Target),
		Amount0:   u256String(c.Amount0),
		Amount1:   u256String(c.Amount1),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalCtx(s string) (lock.Ctx, error) {
	if s == "" {
		return lock.Ctx{}, nil
	}
	var rec ctxRecord
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		return lock.Ctx{}, err
	}
	return lock.Ctx{
		Kind:      rec.Kind,
		User:      idFromString(rec.User),
		Token:     idFromString(rec.Token),
		Amount:    u256FromString(rec.Amount),
		Liquidity: u256FromString(rec.Liquidity),
		AmountA:   u256FromString(rec.AmountA),
		AmountB:   u256FromString(rec.AmountB),
		Stage:     rec.Stage,
		Treasury:  idFromString(rec.Treasury),
		Fee0:      u256FromString(rec.Fee0),
		Fee1:      u256FromString(rec.Fee1),
		Target:    idFromString(rec.Target),
		Amount0:   u256FromString(rec.Amount0),
		Amount1:   u256FromString(rec.Amount1),
	}, nil
}

// SaveState persists the pair's full recoverable state in a single
// transaction: pairstate's record, the lock's state and context, the LP
// ledger's balances and total supply, and the pendingops tracker.
func (s *Store) SaveState(state *pairstate.State, led *ledger.Ledger, ops *pendingops.Tracker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	reserve0, reserve1 := state.Reserves()
	fee0, fee1 := state.TreasuryFees()
	lockState, lockCtx, pausedByAdmin := state.Lock.Snapshot()

	ctxJSON, err := marshalCtx(lockCtx)
	if err != nil {
		return fmt.Errorf("failed to marshal lock context: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO pair_state (id, token0, token1, fee_to, treasury, admin, factory,
			reserve0, reserve1, k_last, accrued_treasury_fee0, accrued_treasury_fee1,
			migrated, lock_state, lock_ctx, paused_by_admin)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fee_to=excluded.fee_to, treasury=excluded.treasury,
			reserve0=excluded.reserve0, reserve1=excluded.reserve1, k_last=excluded.k_last,
			accrued_treasury_fee0=excluded.accrued_treasury_fee0,
			accrued_treasury_fee1=excluded.accrued_treasury_fee1,
			migrated=excluded.migrated, lock_state=excluded.lock_state,
			lock_ctx=excluded.lock_ctx, paused_by_admin=excluded.paused_by_admin
	`,
		idString(state.Token0), idString(state.Token1), idString(state.FeeToID()), idString(state.TreasuryID()),
		idString(state.Admin), idString(state.Factory),
		u256String(reserve0), u256String(reserve1), u256String(state.KLastValue()),
		u256String(fee0), u256String(fee1),
		boolToInt(state.IsMigrated()), string(lockState), ctxJSON, boolToInt(pausedByAdmin),
	)
	if err != nil {
		return fmt.Errorf("failed to save pair state: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM ledger_balances`); err != nil {
		return fmt.Errorf("failed to clear ledger balances: %w", err)
	}
	for account, bal := range led.Snapshot() {
		if _, err := tx.Exec(`INSERT INTO ledger_balances (account, balance) VALUES (?, ?)`, idString(account), u256String(bal)); err != nil {
			return fmt.Errorf("failed to save ledger balance: %w", err)
		}
	}
	_, err = tx.Exec(`
		INSERT INTO ledger_supply (id, total_supply) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET total_supply=excluded.total_supply
	`, u256String(led.TotalSupply()))
	if err != nil {
		return fmt.Errorf("failed to save total supply: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM pending_ops`); err != nil {
		return fmt.Errorf("failed to clear pending ops: %w", err)
	}
	for requestID, status := range ops.Snapshot() {
		_, err := tx.Exec(`INSERT INTO pending_ops (request_id, kind, completed, success) VALUES (?, ?, ?, ?)`,
			requestID, string(status.Kind), boolToInt(status.Completed), boolToInt(status.Success))
		if err != nil {
			return fmt.Errorf("failed to save pending op: %w", err)
		}
	}

	return tx.Commit()
}

// LoadState restores previously-saved state into state, led and ops. It
// returns found=false when no prior save exists (a fresh pair), in which
// case the passed-in collaborators are left untouched.
func (s *Store) LoadState(state *pairstate.State, led *ledger.Ledger, ops *pendingops.Tracker) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT fee_to, treasury, reserve0, reserve1, k_last,
			accrued_treasury_fee0, accrued_treasury_fee1, migrated,
			lock_state, lock_ctx, paused_by_admin
		FROM pair_state WHERE id = 1
	`)

	var feeTo, treasury, reserve0, reserve1, kLast, fee0, fee1, lockStateStr, lockCtxJSON string
	var migrated, pausedByAdmin int
	err = row.Scan(&feeTo, &treasury, &reserve0, &reserve1, &kLast, &fee0, &fee1, &migrated, &lockStateStr, &lockCtxJSON, &pausedByAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load pair state: %w", err)
	}

	state.SetFeeTo(idFromString(feeTo))
	state.SetTreasury(idFromString(treasury))
	state.SetReserves(u256FromString(reserve0), u256FromString(reserve1))
	state.SetKLast(u256FromString(kLast))
	state.AddTreasuryFees(u256FromString(fee0), u256FromString(fee1))
	if migrated != 0 {
		state.SetMigrated()
	}

	lockCtx, err := unmarshalCtx(lockCtxJSON)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal lock context: %w", err)
	}
	state.Lock.Restore(lock.State(lockStateStr), lockCtx, pausedByAdmin != 0)

	balances := make(map[actor.ID]*uint256.Int)
	rows, err := s.db.Query(`SELECT account, balance FROM ledger_balances`)
	if err != nil {
		return false, fmt.Errorf("failed to load ledger balances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var account, balance string
		if err := rows.Scan(&account, &balance); err != nil {
			return false, fmt.Errorf("failed to scan ledger balance: %w", err)
		}
		balances[idFromString(account)] = u256FromString(balance)
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	var totalSupplyStr string
	err = s.db.QueryRow(`SELECT total_supply FROM ledger_supply WHERE id = 1`).Scan(&totalSupplyStr)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to load total supply: %w", err)
	}
	led.Restore(balances, u256FromString(totalSupplyStr))

	opsRows, err := s.db.Query(`SELECT request_id, kind, completed, success FROM pending_ops`)
	if err != nil {
		return false, fmt.Errorf("failed to load pending ops: %w", err)
	}
	defer opsRows.Close()
	opsSnapshot := make(map[string]pendingops.Status)
	for opsRows.Next() {
		var requestID, kind string
		var completed, success int
		if err := opsRows.Scan(&requestID, &kind, &completed, &success); err != nil {
			return false, fmt.Errorf("failed to scan pending op: %w", err)
		}
		opsSnapshot[requestID] = pendingops.Status{Kind: pendingops.Kind(kind), Completed: completed != 0, Success: success != 0}
	}
	if err := opsRows.Err(); err != nil {
		return false, err
	}
	ops.Restore(opsSnapshot)

	return true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
