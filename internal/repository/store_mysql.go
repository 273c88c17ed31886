package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"mandil-capture-api/internal/model"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore backs the capture store with a station-local MySQL
// instance, for kiosk deployments that already run one. Same contract
// as SQLiteStore; MySQL handles writer serialization itself.
type MySQLStore struct {
	db *sql.DB

	operators   *mysqlOperatorRepository
	deliveries  *mysqlDeliveryRepository
	preferences *mysqlPreferenceRepository
}

// NewMySQLStore connects to MySQL using dsn and initializes the schema.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createMySQLSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &MySQLStore{db: db}
	s.operators = &mysqlOperatorRepository{db: db}
	s.deliveries = &mysqlDeliveryRepository{db: db}
	s.preferences = &mysqlPreferenceRepository{db: db}

	log.Println("[MySQLStore] Initialized")
	return s, nil
}

func createMySQLSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS operators (
			id BIGINT PRIMARY KEY,
			username VARCHAR(128) UNIQUE NOT NULL,
			code VARCHAR(64) UNIQUE NOT NULL,
			first_name VARCHAR(255),
			last_name VARCHAR(255),
			updated_at VARCHAR(64)
		)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			uuid VARCHAR(36) UNIQUE NOT NULL,
			registration_date VARCHAR(10) NOT NULL,
			shift VARCHAR(8) NOT NULL,
			operator_code VARCHAR(64) NOT NULL,
			product_displayed TINYINT(1) DEFAULT 1,
			apron_clean TINYINT(1) DEFAULT 1,
			apron_good_condition TINYINT(1) DEFAULT 1,
			notes TEXT,
			send_status VARCHAR(16) DEFAULT 'PENDING',
			error_message TEXT,
			INDEX idx_deliveries_date (registration_date),
			INDEX idx_deliveries_status (send_status)
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			pref_key VARCHAR(64) PRIMARY KEY,
			pref_value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Operators returns the operator repository.
func (s *MySQLStore) Operators() OperatorRepository { return s.operators }

// Deliveries returns the delivery repository.
func (s *MySQLStore) Deliveries() DeliveryRepository { return s.deliveries }

// Preferences returns the preference repository.
func (s *MySQLStore) Preferences() PreferenceRepository { return s.preferences }

// Close closes the database connection.
func (s *MySQLStore) Close() error { return s.db.Close() }

type mysqlOperatorRepository struct {
	db *sql.DB
}

func (r *mysqlOperatorRepository) ReplaceAll(ctx context.Context, operators []model.Operator) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO operators (id, username, code, first_name, last_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			username = VALUES(username), code = VALUES(code),
			first_name = VALUES(first_name), last_name = VALUES(last_name),
			updated_at = VALUES(updated_at)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operators {
		if _, err := stmt.ExecContext(ctx, op.ID, op.Username, op.Code, op.FirstName, op.LastName, op.UpdatedAt); err != nil {
			return 0, fmt.Errorf("failed to upsert operator %d: %w", op.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(operators), nil
}

func (r *mysqlOperatorRepository) FindByCodeOrUsername(ctx context.Context, input string) (*model.Operator, error) {
	var op model.Operator
	var firstName, lastName, updatedAt sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, code, first_name, last_name, updated_at
		FROM operators WHERE code = ? OR username = ? LIMIT 1`, input, input).
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

func (r *mysqlOperatorRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operators").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count operators: %w", err)
	}
	return count, nil
}

type mysqlDeliveryRepository struct {
	db *sql.DB
}

func (r *mysqlDeliveryRepository) Insert(ctx context.Context, d *model.Delivery) (int64, error) {
	status := d.SendStatus
	if status == "" {
		status = model.StatusPending
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO deliveries (
			uuid, registration_date, shift, operator_code,
			product_displayed, apron_clean, apron_good_condition, notes, send_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (r *mysqlDeliveryRepository) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	row := r.db.QueryRowContext(ctx,
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

func (r *mysqlDeliveryRepository) ListUnsent(ctx context.Context, date string) ([]model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE send_status != ?`
	args := []interface{}{string(model.StatusSent)}
	if date != "" {
		query += ` AND registration_date = ?`
		args = append(args, date)
	}
	query += ` ORDER BY id ASC`
	return r.queryDeliveries(ctx, query, args...)
}

func (r *mysqlDeliveryRepository) List(ctx context.Context, date string, shift model.Shift) ([]model.Delivery, error) {
	query := `SELECT ` + deliveryColumns + ` FROM deliveries WHERE registration_date = ?`
	args := []interface{}{date}
	if shift != "" {
		query += ` AND shift = ?`
		args = append(args, string(shift))
	}
	query += ` ORDER BY id DESC`
	return r.queryDeliveries(ctx, query, args...)
}

func (r *mysqlDeliveryRepository) CountByStatus(ctx context.Context, date string, shift model.Shift) (model.StatusCounts, error) {
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
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&counts.Total, &counts.Sent, &counts.Errored)
	if err != nil {
		return model.StatusCounts{}, fmt.Errorf("failed to count deliveries: %w", err)
	}
	counts.Unsent = counts.Total - counts.Sent
	return counts, nil
}

func (r *mysqlDeliveryRepository) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE deliveries SET send_status = 'SENT', error_message = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	return nil
}

func (r *mysqlDeliveryRepository) MarkError(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE deliveries SET send_status = 'ERROR', error_message = ? WHERE id = ?`, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark delivery error: %w", err)
	}
	return nil
}

func (r *mysqlDeliveryRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deliveries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete delivery: %w", err)
	}
	return nil
}

func (r *mysqlDeliveryRepository) queryDeliveries(ctx context.Context, query string, args ...interface{}) ([]model.Delivery, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type mysqlPreferenceRepository struct {
	db *sql.DB
}

func (r *mysqlPreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT pref_value FROM preferences WHERE pref_key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get preference %q: %w", key, err)
	}
	return value, nil
}

func (r *mysqlPreferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (pref_key, pref_value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE pref_value = VALUES(pref_value)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}
	return nil
}

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
