package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"SignalSentinel/internal/errors"
	"SignalSentinel/internal/model"
)

// SQLiteRecorder persists analyses to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so history reads do not block the scheduler's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id              TEXT PRIMARY KEY,
			recorded_at     INTEGER NOT NULL,
			ticker          TEXT NOT NULL,
			horizon         TEXT,
			tolerance       TEXT,
			freshness       TEXT,
			success         INTEGER NOT NULL,
			reason          TEXT,
			elapsed_ms      INTEGER,
			current_price   REAL,
			sma20           REAL,
			sma50           REAL,
			rsi14           REAL,
			macd_histogram  REAL,
			bollinger_width REAL,
			direction       TEXT,
			confidence      REAL,
			strength        TEXT,
			overall_risk    TEXT,
			is_actionable   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker_ts ON analyses(ticker, recorded_at)`,

		`CREATE TABLE IF NOT EXISTS risk_factors (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			level       TEXT NOT NULL,
			description TEXT,
			mitigation  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_risk_factors_analysis ON risk_factors(analysis_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullFloat(o optional.Option[float64]) sql.NullFloat64 {
	if o.IsNone() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: o.Unwrap(), Valid: true}
}

func fromNullFloat(n sql.NullFloat64) optional.Option[float64] {
	if !n.Valid {
		return optional.None[float64]()
	}
	return optional.Some(n.Float64)
}

func nullString(o optional.Option[string]) sql.NullString {
	if o.IsNone() {
		return sql.NullString{}
	}
	return sql.NullString{String: o.Unwrap(), Valid: true}
}

// RecordAnalysis stores the record and its risk factors in one transaction.
func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecordFailed, "begin tx", err)
	}
	defer tx.Rollback()

	var overall sql.NullString
	if rec.Success {
		overall = sql.NullString{String: rec.OverallRisk.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO analyses
		(id, recorded_at, ticker, horizon, tolerance, freshness, success, reason, elapsed_ms,
		 current_price, sma20, sma50, rsi14, macd_histogram, bollinger_width,
		 direction, confidence, strength, overall_risk, is_actionable)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.RecordedAt.UnixMilli(), rec.Ticker, string(rec.Horizon), string(rec.Tolerance),
		string(rec.Freshness), rec.Success, rec.Reason, rec.ElapsedMS,
		rec.CurrentPrice, nullFloat(rec.SMA20), nullFloat(rec.SMA50), nullFloat(rec.RSI14),
		nullFloat(rec.MACDHistogram), nullFloat(rec.BollingerWidth),
		string(rec.Direction), rec.Confidence, string(rec.Strength), overall, rec.IsActionable,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecordFailed, "insert analysis", err)
	}

	for i, f := range rec.RiskFactors {
		if _, err := tx.ExecContext(ctx, `INSERT INTO risk_factors
			(analysis_id, position, name, level, description, mitigation)
			VALUES (?,?,?,?,?,?)`,
			rec.ID, i, f.Name, f.Level.String(), f.Description, nullString(f.Mitigation),
		); err != nil {
			return errors.Wrap(errors.ErrCodeRecordFailed, "insert risk factor", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeRecordFailed, "commit", err)
	}
	return nil
}

// History returns the most recent analyses for ticker, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, ticker string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, recorded_at, ticker, horizon, tolerance, freshness, success, reason, elapsed_ms,
		current_price, sma20, sma50, rsi14, macd_histogram, bollinger_width,
		direction, confidence, strength, overall_risk, is_actionable
		FROM analyses WHERE ticker = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
		ticker, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecordFailed, "query analyses", err)
	}
	defer rows.Close()

	var records []AnalysisRecord
	for rows.Next() {
		var (
			rec                                AnalysisRecord
			recordedAt                         int64
			horizon, tolerance, freshness      string
			reason, direction, strength        sql.NullString
			overall                            sql.NullString
			price, confidence                  sql.NullFloat64
			sma20, sma50, rsi14, macdHist, bbW sql.NullFloat64
			actionable                         sql.NullBool
		)
		if err := rows.Scan(&rec.ID, &recordedAt, &rec.Ticker, &horizon, &tolerance, &freshness,
			&rec.Success, &reason, &rec.ElapsedMS,
			&price, &sma20, &sma50, &rsi14, &macdHist, &bbW,
			&direction, &confidence, &strength, &overall, &actionable); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecordFailed, "scan analysis", err)
		}
		rec.RecordedAt = time.UnixMilli(recordedAt).UTC()
		rec.Horizon = model.TimeHorizon(horizon)
		rec.Tolerance = model.RiskTolerance(tolerance)
		rec.Freshness = model.Freshness(freshness)
		rec.Reason = reason.String
		rec.CurrentPrice = price.Float64
		rec.SMA20 = fromNullFloat(sma20)
		rec.SMA50 = fromNullFloat(sma50)
		rec.RSI14 = fromNullFloat(rsi14)
		rec.MACDHistogram = fromNullFloat(macdHist)
		rec.BollingerWidth = fromNullFloat(bbW)
		rec.Direction = model.Direction(direction.String)
		rec.Confidence = confidence.Float64
		rec.Strength = model.Strength(strength.String)
		rec.IsActionable = actionable.Bool
		if overall.Valid {
			if err := rec.OverallRisk.UnmarshalText([]byte(overall.String)); err != nil {
				return nil, errors.Wrap(errors.ErrCodeRecordFailed, "decode overall risk", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecordFailed, "iterate analyses", err)
	}

	for i := range records {
		factors, err := r.riskFactors(ctx, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].RiskFactors = factors
	}
	return records, nil
}

func (r *SQLiteRecorder) riskFactors(ctx context.Context, analysisID string) ([]model.RiskFactor, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, level, description, mitigation
		FROM risk_factors WHERE analysis_id = ? ORDER BY position`, analysisID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecordFailed, "query risk factors", err)
	}
	defer rows.Close()

	var factors []model.RiskFactor
	for rows.Next() {
		var (
			f           model.RiskFactor
			level       string
			description sql.NullString
			mitigation  sql.NullString
		)
		if err := rows.Scan(&f.Name, &level, &description, &mitigation); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecordFailed, "scan risk factor", err)
		}
		if err := f.Level.UnmarshalText([]byte(level)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecordFailed, "decode risk level", err)
		}
		f.Description = description.String
		if mitigation.Valid {
			f.Mitigation = optional.Some(mitigation.String)
		} else {
			f.Mitigation = optional.None[string]()
		}
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
