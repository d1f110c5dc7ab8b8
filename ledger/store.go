package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store persists counters, print records and shift history in SQLite.
// An empty path opens an in-memory database for tests.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (and if necessary initializes) the ledger database
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writes internally with busy_timeout; WAL lets
	// concurrent terminals read while one writes
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS serial_counters (
		product_id TEXT PRIMARY KEY,
		next_serial INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS print_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL,
		product_name TEXT,
		serial_number INTEGER NOT NULL,
		weight REAL DEFAULT 0,
		print_date TEXT,
		shift_id TEXT,
		status TEXT NOT NULL DEFAULT 'ok',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_print_records_product ON print_records(product_id);
	CREATE INDEX IF NOT EXISTS idx_print_records_serial ON print_records(serial_number);
	CREATE INDEX IF NOT EXISTS idx_print_records_shift ON print_records(shift_id);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		print_count INTEGER DEFAULT 0,
		total_weight REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_start ON shifts(start_time);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (1, ?)",
		time.Now().UTC())
	return err
}

// Counters loads the whole counter map
func (s *Store) Counters(ctx context.Context) (map[string]uint64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT product_id, next_serial FROM serial_counters")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counters := make(map[string]uint64)
	for rows.Next() {
		var product string
		var next uint64
		if err := rows.Scan(&product, &next); err != nil {
			return nil, err
		}
		counters[product] = next
	}
	return counters, rows.Err()
}

// SetCounter upserts one product's counter
func (s *Store) SetCounter(ctx context.Context, productID string, next uint64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO serial_counters (product_id, next_serial, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET next_serial = excluded.next_serial,
			updated_at = excluded.updated_at`,
		productID, next, time.Now().UTC())
	return err
}

// ReplaceCounters swaps the stored counter map wholesale for an incoming
// snapshot from another writer. Last writer wins at map granularity.
func (s *Store) ReplaceCounters(ctx context.Context, counters map[string]uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM serial_counters"); err != nil {
		return err
	}
	now := time.Now().UTC()
	for product, next := range counters {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO serial_counters (product_id, next_serial, updated_at) VALUES (?, ?, ?)",
			product, next, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertPrint records one label submission and returns its row id
func (s *Store) InsertPrint(ctx context.Context, pr PrintRecord) (int64, error) {
	if pr.Status == "" {
		pr.Status = StatusOK
	}
	if pr.CreatedAt.IsZero() {
		pr.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO print_records
			(product_id, product_name, serial_number, weight, print_date, shift_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.ProductID, pr.ProductName, pr.SerialNumber, pr.Weight, pr.Date,
		pr.ShiftID, pr.Status, pr.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FindPrint looks for a record matching serial number, product name and
// date exactly. Returns nil when there is no match.
func (s *Store) FindPrint(ctx context.Context, serialNumber uint64, productName, date string) (*PrintRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, product_name, serial_number, weight, print_date,
			COALESCE(shift_id, ''), status, created_at
		FROM print_records
		WHERE serial_number = ? AND product_name = ? AND print_date = ?
		ORDER BY id LIMIT 1`,
		serialNumber, productName, date)

	var pr PrintRecord
	err := row.Scan(&pr.ID, &pr.ProductID, &pr.ProductName, &pr.SerialNumber,
		&pr.Weight, &pr.Date, &pr.ShiftID, &pr.Status, &pr.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pr, nil
}

// RecentPrints returns the newest records first, up to limit
func (s *Store) RecentPrints(ctx context.Context, limit int) ([]PrintRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, serial_number, weight, print_date,
			COALESCE(shift_id, ''), status, created_at
		FROM print_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PrintRecord
	for rows.Next() {
		var pr PrintRecord
		if err := rows.Scan(&pr.ID, &pr.ProductID, &pr.ProductName, &pr.SerialNumber,
			&pr.Weight, &pr.Date, &pr.ShiftID, &pr.Status, &pr.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, pr)
	}
	return records, rows.Err()
}

// ShiftPrints returns the records attributed to one shift in print order
func (s *Store) ShiftPrints(ctx context.Context, shiftID string) ([]PrintRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, serial_number, weight, print_date,
			COALESCE(shift_id, ''), status, created_at
		FROM print_records WHERE shift_id = ? ORDER BY id`, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PrintRecord
	for rows.Next() {
		var pr PrintRecord
		if err := rows.Scan(&pr.ID, &pr.ProductID, &pr.ProductName, &pr.SerialNumber,
			&pr.Weight, &pr.Date, &pr.ShiftID, &pr.Status, &pr.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, pr)
	}
	return records, rows.Err()
}

// SaveShift upserts a shift header row
func (s *Store) SaveShift(ctx context.Context, sh Shift) error {
	var end interface{}
	if sh.EndTime != nil {
		end = sh.EndTime.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, user_id, start_time, end_time, print_count, total_weight)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			end_time = excluded.end_time,
			print_count = excluded.print_count,
			total_weight = excluded.total_weight`,
		sh.ID, sh.UserID, sh.StartTime.UTC(), end, sh.PrintCount, sh.TotalWeight)
	return err
}

// ShiftHistory returns closed shifts newest first, up to limit
func (s *Store) ShiftHistory(ctx context.Context, limit int) ([]Shift, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, start_time, end_time, print_count, total_weight
		FROM shifts WHERE end_time IS NOT NULL
		ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []Shift
	for rows.Next() {
		var sh Shift
		var end sql.NullTime
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.StartTime, &end,
			&sh.PrintCount, &sh.TotalWeight); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			sh.EndTime = &t
		}
		shifts = append(shifts, sh)
	}
	return shifts, rows.Err()
}

// PruneShifts evicts the oldest closed shifts beyond the retention count
func (s *Store) PruneShifts(ctx context.Context, retain int) error {
	if retain <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM shifts WHERE end_time IS NOT NULL AND id NOT IN (
			SELECT id FROM shifts WHERE end_time IS NOT NULL
			ORDER BY start_time DESC LIMIT ?
		)`, retain)
	return err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
