package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"TalmudBacktest/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while runs are written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id                 TEXT PRIMARY KEY,
			created_at         INTEGER NOT NULL,
			real_estate        TEXT NOT NULL,
			stocks             TEXT NOT NULL,
			cash               TEXT NOT NULL,
			benchmark          TEXT NOT NULL,
			start_date         TEXT,
			end_date           TEXT,
			initial_capital    REAL,
			policy             TEXT,
			final_equity       REAL,
			final_benchmark    REAL,
			rebalances         INTEGER,
			total_return       REAL,
			cagr               REAL,
			max_drawdown       REAL,
			volatility         REAL,
			sharpe             REAL,
			bench_total_return REAL,
			bench_cagr         REAL,
			bench_max_drawdown REAL,
			bench_volatility   REAL,
			bench_sharpe       REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON backtest_runs(created_at)`,

		`CREATE TABLE IF NOT EXISTS equity_points (
			run_id      TEXT NOT NULL,
			date        TEXT NOT NULL,
			total       REAL,
			weight_re   REAL,
			weight_stk  REAL,
			weight_cash REAL,
			rebalanced  INTEGER,
			benchmark   REAL,
			PRIMARY KEY (run_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS rebalance_events (
			run_id TEXT NOT NULL,
			date   TEXT NOT NULL,
			equity REAL,
			PRIMARY KEY (run_id, date)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun writes the run summary, its daily curve and its rebalance events
// in one transaction. Re-recording the same run ID replaces it.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, res *model.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM equity_points WHERE run_id = ?`,
		`DELETE FROM rebalance_events WHERE run_id = ?`,
		`DELETE FROM backtest_runs WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, res.ID); err != nil {
			return fmt.Errorf("replace run: %w", err)
		}
	}

	req := res.Request
	s, b := res.Strategy, res.BenchmarkMetrics
	_, err = tx.ExecContext(ctx, `INSERT INTO backtest_runs
		(id, created_at, real_estate, stocks, cash, benchmark, start_date, end_date,
		 initial_capital, policy, final_equity, final_benchmark, rebalances,
		 total_return, cagr, max_drawdown, volatility, sharpe,
		 bench_total_return, bench_cagr, bench_max_drawdown, bench_volatility, bench_sharpe)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, res.CreatedAt.Unix(), req.RealEstate, req.Stocks, req.Cash, req.BenchmarkSymbol(),
		formatDate(req.Start), formatDate(req.End),
		req.InitialCapital, req.Policy.String(), res.FinalEquity(), res.FinalBenchmark(), len(res.Rebalances),
		s.TotalReturn, s.CAGR, s.MaxDrawdown, s.Volatility, s.Sharpe,
		b.TotalReturn, b.CAGR, b.MaxDrawdown, b.Volatility, b.Sharpe,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	pointStmt, err := tx.PrepareContext(ctx, `INSERT INTO equity_points
		(run_id, date, total, weight_re, weight_stk, weight_cash, rebalanced, benchmark)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare points: %w", err)
	}
	defer pointStmt.Close()

	for i, p := range res.Curve {
		var bench any
		if i < len(res.Benchmark) {
			bench = res.Benchmark[i].Equity
		}
		if _, err := pointStmt.ExecContext(ctx, res.ID, p.Date.Format(dateLayout), p.TotalEquity,
			p.WeightRE, p.WeightSTK, p.WeightCash, p.Rebalanced, bench); err != nil {
			return fmt.Errorf("insert point %s: %w", p.Date.Format(dateLayout), err)
		}
		if p.Rebalanced {
			if _, err := tx.ExecContext(ctx, `INSERT INTO rebalance_events (run_id, date, equity) VALUES (?,?,?)`,
				res.ID, p.Date.Format(dateLayout), p.TotalEquity); err != nil {
				return fmt.Errorf("insert rebalance: %w", err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, created_at, real_estate, stocks, cash, benchmark, start_date, end_date,
		initial_capital, policy, final_equity, final_benchmark, rebalances,
		total_return, cagr, max_drawdown, volatility, sharpe,
		bench_total_return, bench_cagr, bench_max_drawdown, bench_volatility, bench_sharpe
		FROM backtest_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			rs              RunSummary
			created         int64
			start, end, pol string
		)
		s, b := &rs.Strategy, &rs.Benchmark
		if err := rows.Scan(&rs.ID, &created, &rs.Request.RealEstate, &rs.Request.Stocks, &rs.Request.Cash,
			&rs.Request.Benchmark, &start, &end, &rs.Request.InitialCapital, &pol,
			&rs.FinalEquity, &rs.FinalBenchmark, &rs.Rebalances,
			&s.TotalReturn, &s.CAGR, &s.MaxDrawdown, &s.Volatility, &s.Sharpe,
			&b.TotalReturn, &b.CAGR, &b.MaxDrawdown, &b.Volatility, &b.Sharpe); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.CreatedAt = time.Unix(created, 0).UTC()
		rs.Request.Start = parseDate(start)
		rs.Request.End = parseDate(end)
		if p, err := model.ParsePolicy(pol); err == nil {
			rs.Request.Policy = p
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
