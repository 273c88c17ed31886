package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mandil-capture-api/internal/model"
)

// sqliteDeliveryRepository implements DeliveryRepository on SQLite.
type sqliteDeliveryRepository struct {
	store *SQLiteStore
}

const deliveryColumns = `id, uuid, registration_date, shift, operator_code,
	product_displayed, apron_clean, apron_good_condition, notes, send_status, error_message`

// Insert persists a new record and returns the assigned local id.
// Status defaults to PENDING when the caller leaves it empty.
func (r *sqliteDeliveryRepository) Insert(ctx context.Context, d *model.Delivery) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	status := d.SendStatus
	if status == "" {
		status = model.StatusPending
	}

	query := `
		INSERT INTO deliveries (
			uuid, registration_date, shift, operator_code,
			product_displayed, apron_clean, apron_good_condition, notes, send_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.store.db.ExecContext(ctx, query,
		d.UUID, d.RegistrationDate, string(d.Shift), d.OperatorCode,
		boolToInt(d.ProductDisplayed), boolToInt(d.ApronClean), boolToInt(d.ApronGoodCondition),
		nullIfEmpty(d.Notes), string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to insert delivery: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert id: %w", err)
	}
	return id, nil
}

// GetByID returns one record, or nil when the id does not exist.
func (r *sqliteDeliveryRepository) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id)

	d, err := scanDelivery(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	return d, nil
}

// ListUnsent returns records with status != SENT in insertion order so
// sweeps are deterministic.
func (r *sqliteDeliveryRepository) ListUnsent(ctx context.Context, date string) ([]model.Delivery, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE send_status != ?`
	args := []interface{}{string(model.StatusSent)}

	if date != "" {
		query += ` AND registration_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY id ASC`

	return r.queryDeliveries(ctx, query, args...)
}

// List returns records for one registration date, optionally one shift,
// newest first.
func (r *sqliteDeliveryRepository) List(ctx context.Context, date string, shift model.Shift) ([]model.Delivery, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE registration_date = ?`
	args := []interface{}{date}

	if shift != "" {
		query += ` AND shift = ?`
		args = append(args, string(shift))
	}
	query += ` ORDER BY id DESC`

	return r.queryDeliveries(ctx, query, args...)
}

// CountByStatus summarizes sent vs not-sent within the List filter.
func (r *sqliteDeliveryRepository) CountByStatus(ctx context.Context, date string, shift model.Shift) (model.StatusCounts, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN send_status = 'SENT' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN send_status = 'ERROR' THEN 1 ELSE 0 END), 0)
		FROM deliveries WHERE registration_date = ?`
	args := []interface{}{date}

	if shift != "" {
		query += ` AND shift = ?`
		args = append(args, string(shift))
	}

	var counts model.StatusCounts
	err := r.store.db.QueryRowContext(ctx, query, args...).
		Scan(&counts.Total, &counts.Sent, &counts.Errored)
	if err != nil {
		return model.StatusCounts{}, fmt.Errorf("failed to count deliveries: %w", err)
	}
	counts.Unsent = counts.Total - counts.Sent

	return counts, nil
}

// MarkSent transitions a record to SENT and clears its error message.
func (r *sqliteDeliveryRepository) MarkSent(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`UPDATE deliveries SET send_status = 'SENT', error_message = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	return nil
}

// MarkError transitions a record to ERROR and stores the failure text.
func (r *sqliteDeliveryRepository) MarkError(ctx context.Context, id int64, message string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx,
		`UPDATE deliveries SET send_status = 'ERROR', error_message = ? WHERE id = ?`, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery error: %w", err)
	}
	return nil
}

// Delete removes a record locally.
func (r *sqliteDeliveryRepository) Delete(ctx context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, err := r.store.db.ExecContext(ctx, `DELETE FROM deliveries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}
	return nil
}

func (r *sqliteDeliveryRepository) queryDeliveries(ctx context.Context, query string, args ...interface{}) ([]model.Delivery, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var result []model.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deliveries: %w", err)
	}
	return result, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDelivery(s scanner) (*model.Delivery, error) {
	var d model.Delivery
	var shift, status string
	var productDisplayed, apronClean, apronGoodCondition int
	var notes, errorMessage sql.NullString

	err := s.Scan(&d.ID, &d.UUID, &d.RegistrationDate, &shift, &d.OperatorCode,
		&productDisplayed, &apronClean, &apronGoodCondition, &notes, &status, &errorMessage)
	if err != nil {
		return nil, err
	}

	d.Shift = model.Shift(shift)
	d.SendStatus = model.SendStatus(status)
	d.ProductDisplayed = productDisplayed == 1
	d.ApronClean = apronClean == 1
	d.ApronGoodCondition = apronGoodCondition == 1
	d.Notes = notes.String
	d.ErrorMessage = errorMessage.String

	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

var _ DeliveryRepository = (*sqliteDeliveryRepository)(nil)
