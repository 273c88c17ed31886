package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PrefShiftKey is the preference key for the last-selected shift.
const PrefShiftKey = "shift"

// sqlitePreferenceRepository implements PreferenceRepository on SQLite.
type sqlitePreferenceRepository struct {
	store *SQLiteStore
}

// Get returns the stored value for key, or "" when unset.
func (r *sqlitePreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var value string
	err := r.store.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *sqlitePreferenceRepository) Set(ctx context.Context, key, value string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}
	return nil
}

var _ PreferenceRepository = (*sqlitePreferenceRepository)(nil)
