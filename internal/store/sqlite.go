package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"LevelScan/internal/model"
)

// SQLiteStore persists bars and scan history to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so chart viewers can read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bars_symbol_ts ON bars(symbol, ts)`,

		`CREATE TABLE IF NOT EXISTS scans (
			id               TEXT PRIMARY KEY,
			symbol           TEXT NOT NULL,
			scanned_at       INTEGER NOT NULL,
			"window"         INTEGER,
			tolerance        REAL,
			min_touches      INTEGER,
			min_gap_days     INTEGER,
			num_supports     INTEGER,
			num_resistances  INTEGER,
			final_support    REAL,
			final_resistance REAL,
			range_width      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_symbol ON scans(symbol, scanned_at)`,

		`CREATE TABLE IF NOT EXISTS scan_levels (
			scan_id     TEXT NOT NULL,
			kind        TEXT NOT NULL,
			price       REAL NOT NULL,
			touch_count INTEGER,
			first_touch INTEGER,
			last_touch  INTEGER,
			breached    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_levels_scan ON scan_levels(scan_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) UpsertBars(symbol string, bars []model.OHLCV) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(symbol, ts) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert bar: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadBars(symbol string, from, to time.Time) ([]model.OHLCV, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT ts, open, high, low, close, volume FROM bars
		WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts`,
		symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	var bars []model.OHLCV
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = time.Unix(ts, 0)
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (s *SQLiteStore) LastBarTime(symbol string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ts sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(ts) FROM bars WHERE symbol = ?`, symbol).Scan(&ts)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last bar time: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0), true, nil
}

func (s *SQLiteStore) RecordScan(a *model.Analysis, params ScanParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()

	var finalSupport, finalResistance interface{}
	if a.FinalSupport != nil {
		finalSupport = a.FinalSupport.Price
	}
	if a.FinalResistance != nil {
		finalResistance = a.FinalResistance.Price
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO scans
		(id, symbol, scanned_at, "window", tolerance, min_touches, min_gap_days,
		 num_supports, num_resistances, final_support, final_resistance, range_width)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, a.Symbol, a.ScannedAt.Unix(),
		params.Window, params.Tolerance, params.MinTouches, params.MinGapDays,
		len(a.Supports), len(a.Resistances), finalSupport, finalResistance, a.RangeWidth,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert scan: %w", err)
	}

	insertLevel := func(lvl *model.Level) error {
		breached := 0
		if lvl.Breached {
			breached = 1
		}
		_, err := tx.Exec(`INSERT INTO scan_levels
			(scan_id, kind, price, touch_count, first_touch, last_touch, breached)
			VALUES (?,?,?,?,?,?,?)`,
			id, string(lvl.Kind), lvl.Price, lvl.TouchCount(),
			lvl.FirstTouch().Unix(), lvl.LastTouch().Unix(), breached,
		)
		return err
	}
	for i := range a.Supports {
		if err := insertLevel(&a.Supports[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert support level: %w", err)
		}
	}
	for i := range a.Resistances {
		if err := insertLevel(&a.Resistances[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert resistance level: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
