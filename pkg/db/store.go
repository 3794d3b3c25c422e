package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS history_records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    hash TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    device_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'verified'
);

CREATE TABLE IF NOT EXISTS blocks (
    block_number INTEGER PRIMARY KEY,
    block_id TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    transactions INTEGER NOT NULL DEFAULT 0,
    validator TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_time ON history_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_history_device ON history_records(device_id);
`

type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SeedDemo fills empty tables with the demo datasets. Returns true if anything was written.
func (s *Store) SeedDemo(now time.Time) (bool, error) {
	stats, err := s.GetStats()
	if err != nil {
		return false, err
	}
	seeded := false
	if stats["history_records"] == 0 {
		for _, r := range DemoHistory(now) {
			if err := s.UpsertHistoryRecord(r); err != nil {
				return seeded, err
			}
		}
		seeded = true
	}
	if stats["blocks"] == 0 {
		for _, b := range DemoBlocks(now) {
			if err := s.UpsertBlock(b); err != nil {
				return seeded, err
			}
		}
		seeded = true
	}
	return seeded, nil
}

// ---- History ----

func (s *Store) UpsertHistoryRecord(r HistoryRecord) error {
	if r.Status == "" {
		r.Status = StatusVerified
	}
	_, err := s.db.Exec(`
		INSERT INTO history_records (id, hash, timestamp, device_id, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hash = excluded.hash,
			timestamp = excluded.timestamp,
			device_id = excluded.device_id,
			status = excluded.status`,
		r.ID, r.Hash, r.Timestamp.UTC(), r.DeviceID, r.Status)
	return err
}

// GetHistory returns records newest first. limit <= 0 means no limit.
func (s *Store) GetHistory(limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, hash, timestamp, device_id, status
		FROM history_records ORDER BY timestamp DESC, seq ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []HistoryRecord{}
	for rows.Next() {
		var r HistoryRecord
		if err := rows.Scan(&r.ID, &r.Hash, &r.Timestamp, &r.DeviceID, &r.Status); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ---- Blocks ----

func (s *Store) UpsertBlock(b BlockRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO blocks (block_number, block_id, transaction_id, timestamp, transactions, validator)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(block_number) DO UPDATE SET
			block_id = excluded.block_id,
			transaction_id = excluded.transaction_id,
			timestamp = excluded.timestamp,
			transactions = excluded.transactions,
			validator = excluded.validator`,
		b.BlockNumber, b.BlockID, b.TransactionID, b.Timestamp.UTC(), b.Transactions, b.Validator)
	return err
}

// GetBlocks returns blocks by descending block number. limit <= 0 means no limit.
func (s *Store) GetBlocks(limit int) ([]BlockRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT block_number, block_id, transaction_id, timestamp, transactions, validator
		FROM blocks ORDER BY block_number DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := []BlockRecord{}
	for rows.Next() {
		var b BlockRecord
		if err := rows.Scan(&b.BlockNumber, &b.BlockID, &b.TransactionID, &b.Timestamp, &b.Transactions, &b.Validator); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// ---- Stats ----

func (s *Store) GetStats() (map[string]int, error) {
	stats := map[string]int{}
	for _, table := range []string{"history_records", "blocks"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}
