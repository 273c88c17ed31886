package repository

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore is the default on-device store. Thread-safe with WAL
// mode; SQLite allows a single writer, so the pool is pinned to one
// connection and mutations are serialized behind a mutex.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex

	operators   *sqliteOperatorRepository
	deliveries  *sqliteDeliveryRepository
	preferences *sqlitePreferenceRepository
}

// NewSQLiteStore opens (creating if needed) the capture database at
// dbPath and initializes the schema. Safe to call on every start.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.operators = &sqliteOperatorRepository{store: s}
	s.deliveries = &sqliteDeliveryRepository{store: s}
	s.preferences = &sqlitePreferenceRepository{store: s}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return s, nil
}

// createSchema creates the operator mirror, delivery and preference
// tables. Idempotent.
func createSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS operators (
		id INTEGER PRIMARY KEY NOT NULL,
		username TEXT UNIQUE NOT NULL,
		code TEXT UNIQUE NOT NULL,
		first_name TEXT,
		last_name TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT UNIQUE NOT NULL,
		registration_date TEXT NOT NULL,
		shift TEXT NOT NULL,
		operator_code TEXT NOT NULL,
		product_displayed INTEGER DEFAULT 1,
		apron_clean INTEGER DEFAULT 1,
		apron_good_condition INTEGER DEFAULT 1,
		notes TEXT,
		send_status TEXT DEFAULT 'PENDING',
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_date ON deliveries(registration_date);
	CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(send_status);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY NOT NULL,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// Operators returns the operator repository.
func (s *SQLiteStore) Operators() OperatorRepository { return s.operators }

// Deliveries returns the delivery repository.
func (s *SQLiteStore) Deliveries() DeliveryRepository { return s.deliveries }

// Preferences returns the preference repository.
func (s *SQLiteStore) Preferences() PreferenceRepository { return s.preferences }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
