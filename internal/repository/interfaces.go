package repository

import (
	"context"

	"mandil-capture-api/internal/model"
)

// OperatorRepository defines reference-directory data access methods.
type OperatorRepository interface {
	// ReplaceAll upserts every operator by primary key inside a single
	// transaction. Either all entries land or none do.
	ReplaceAll(ctx context.Context, operators []model.Operator) (int, error)

	// FindByCodeOrUsername returns the operator whose code or username
	// matches input, or nil when no row matches.
	FindByCodeOrUsername(ctx context.Context, input string) (*model.Operator, error)

	// Count returns the number of mirrored operators.
	Count(ctx context.Context) (int, error)
}

// DeliveryRepository defines delivery-record data access methods.
type DeliveryRepository interface {
	// Insert persists a new record with the given status and returns the
	// assigned local id.
	Insert(ctx context.Context, d *model.Delivery) (int64, error)

	// GetByID returns one record, or nil when the id does not exist.
	GetByID(ctx context.Context, id int64) (*model.Delivery, error)

	// ListUnsent returns every record whose status is not SENT, oldest
	// first. A non-empty date restricts the result to that registration
	// date.
	ListUnsent(ctx context.Context, date string) ([]model.Delivery, error)

	// List returns records for an exact registration date, optionally
	// restricted to one shift, newest first.
	List(ctx context.Context, date string, shift model.Shift) ([]model.Delivery, error)

	// CountByStatus summarizes sent vs not-sent within the same filter
	// List applies.
	CountByStatus(ctx context.Context, date string, shift model.Shift) (model.StatusCounts, error)

	// MarkSent transitions a record to SENT and clears its error message.
	MarkSent(ctx context.Context, id int64) error

	// MarkError transitions a record to ERROR and stores the failure text.
	MarkError(ctx context.Context, id int64, message string) error

	// Delete removes a record locally.
	Delete(ctx context.Context, id int64) error
}

// PreferenceRepository stores small process-wide key/value preferences,
// such as the last-selected shift.
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store bundles the repositories backed by one database so main can
// switch backends in one place.
type Store interface {
	Operators() OperatorRepository
	Deliveries() DeliveryRepository
	Preferences() PreferenceRepository
	Close() error
}
