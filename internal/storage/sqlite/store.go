// Package sqlite keeps the decision history: one row per finished run,
// queryable by symbol for backtesting and the CLI's history view.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumenfin/CouncilGo/internal/models"
)

type Store struct {
	db *sql.DB
}

// DecisionRecord is one stored run. The full decision rides along as
// JSON so history queries never lose detail to the schema.
type DecisionRecord struct {
	RunID          string
	Symbol         string
	TradeDate      string
	Horizon        string
	Recommendation string
	Confidence     float64
	Flags          []string
	DebateRounds   int
	Converged      bool
	Decision       *models.Decision
	CreatedAt      string
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS decisions (
    run_id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    horizon TEXT,
    recommendation TEXT NOT NULL,
    confidence REAL NOT NULL,
    flags_json TEXT,
    debate_rounds INTEGER NOT NULL DEFAULT 0,
    converged INTEGER NOT NULL DEFAULT 0,
    decision_json TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_decisions_symbol_created ON decisions(symbol, created_at);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveDecision records one finished run. Re-saving a run ID updates
// the row, which only happens when a replay reuses the ID on purpose.
func (s *Store) SaveDecision(ctx context.Context, runID, tradeDate string, d *models.Decision) error {
	decisionJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	flagsJSON, err := json.Marshal(d.PolicyFlags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	rounds := 0
	converged := 0
	if d.Debate != nil {
		rounds = d.Debate.RoundsExecuted()
		if d.Debate.Converged {
			converged = 1
		}
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO decisions (run_id, symbol, trade_date, horizon, recommendation, confidence, flags_json, debate_rounds, converged, decision_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
    recommendation=excluded.recommendation,
    confidence=excluded.confidence,
    flags_json=excluded.flags_json,
    debate_rounds=excluded.debate_rounds,
    converged=excluded.converged,
    decision_json=excluded.decision_json
`, runID, d.Symbol, tradeDate, d.Horizon, d.Recommendation, d.Confidence,
		string(flagsJSON), rounds, converged, string(decisionJSON))
	if err != nil {
		return fmt.Errorf("save decision %s: %w", runID, err)
	}
	return nil
}

// Get returns one stored run or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, runID string) (*DecisionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT run_id, symbol, trade_date, horizon, recommendation, confidence, flags_json, debate_rounds, converged, decision_json, created_at
FROM decisions WHERE run_id = ?`, runID)
	return scanRecord(row)
}

// BySymbol returns the newest runs for a symbol, most recent first.
func (s *Store) BySymbol(ctx context.Context, symbol string, limit int) ([]*DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, symbol, trade_date, horizon, recommendation, confidence, flags_json, debate_rounds, converged, decision_json, created_at
FROM decisions WHERE symbol = ? ORDER BY created_at DESC, run_id DESC LIMIT ?`,
		strings.ToUpper(strings.TrimSpace(symbol)), limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions for %s: %w", symbol, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Recent returns the newest runs across all symbols.
func (s *Store) Recent(ctx context.Context, limit int) ([]*DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, symbol, trade_date, horizon, recommendation, confidence, flags_json, debate_rounds, converged, decision_json, created_at
FROM decisions ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent decisions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*DecisionRecord, error) {
	var rec DecisionRecord
	var flagsJSON, decisionJSON string
	var converged int
	err := row.Scan(&rec.RunID, &rec.Symbol, &rec.TradeDate, &rec.Horizon,
		&rec.Recommendation, &rec.Confidence, &flagsJSON, &rec.DebateRounds,
		&converged, &decisionJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.Converged = converged != 0
	if flagsJSON != "" {
		if err := json.Unmarshal([]byte(flagsJSON), &rec.Flags); err != nil {
			return nil, fmt.Errorf("decode flags for %s: %w", rec.RunID, err)
		}
	}
	if err := json.Unmarshal([]byte(decisionJSON), &rec.Decision); err != nil {
		return nil, fmt.Errorf("decode decision for %s: %w", rec.RunID, err)
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*DecisionRecord, error) {
	var out []*DecisionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
