package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mandil-capture-api/internal/model"
)

// sqliteOperatorRepository implements OperatorRepository on SQLite.
type sqliteOperatorRepository struct {
	store *SQLiteStore
}

// ReplaceAll upserts every operator by primary key in one transaction.
// Last writer for a given id wins; no field merge. Stale local-only
// rows are left in place (additive mirror).
func (r *sqliteOperatorRepository) ReplaceAll(ctx context.Context, operators []model.Operator) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO operators (id, username, code, first_name, last_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operators {
		_, err := stmt.ExecContext(ctx, op.ID, op.Username, op.Code, op.FirstName, op.LastName, op.UpdatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert operator %d: %w", op.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(operators), nil
}

// FindByCodeOrUsername returns the operator matching the scanned or
// typed input against code or username.
func (r *sqliteOperatorRepository) FindByCodeOrUsername(ctx context.Context, input string) (*model.Operator, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT id, username, code, first_name, last_name, updated_at
		FROM operators WHERE code = ? OR username = ? LIMIT 1`

	var op model.Operator
	var firstName, lastName, updatedAt sql.NullString
	err := r.store.db.QueryRowContext(ctx, query, input, input).
		Scan(&op.ID, &op.Username, &op.Code, &firstName, &lastName, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find operator: %w", err)
	}
	op.FirstName = firstName.String
	op.LastName = lastName.String
	op.UpdatedAt = updatedAt.String

	return &op, nil
}

// Count returns the number of mirrored operators.
func (r *sqliteOperatorRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int
	if err := r.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operators").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return count, nil
}

var _ OperatorRepository = (*sqliteOperatorRepository)(nil)
