package model

// DateLayout is the calendar-date format used for registration dates,
// both locally and on the wire.
const DateLayout = "2006-01-02"

// Shift is the work period a delivery belongs to. It is selected once
// per session and cached across restarts.
type Shift string

const (
	ShiftDay   Shift = "DAY"
	ShiftNight Shift = "NIGHT"
)

// Valid reports whether s is one of the known shifts.
func (s Shift) Valid() bool {
	return s == ShiftDay || s == ShiftNight
}

// WireValue returns the value the remote API expects for this shift.
func (s Shift) WireValue() string {
	switch s {
	case ShiftNight:
		return "NOCTURNO"
	default:
		return "DIURNO"
	}
}

// SendStatus is the synchronization state of a delivery record.
// PENDING and ERROR records are eligible for (re)send; SENT is terminal.
type SendStatus string

const (
	StatusPending SendStatus = "PENDING"
	StatusSent    SendStatus = "SENT"
	StatusError   SendStatus = "ERROR"
)

// Valid reports whether s is one of the known statuses.
func (s SendStatus) Valid() bool {
	return s == StatusPending || s == StatusSent || s == StatusError
}

// Delivery is one compliance-check event for a garment handover.
// Identity is owned locally: ID is the autoincrement key, UUID the
// client-generated idempotency key. Only SendStatus and ErrorMessage
// mutate after insert, and only through the sync engine.
type Delivery struct {
	ID                 int64      `json:"id"`
	UUID               string     `json:"uuid"`
	RegistrationDate   string     `json:"registration_date"`
	Shift              Shift      `json:"shift"`
	OperatorCode       string     `json:"operator_code"`
	ProductDisplayed   bool       `json:"product_displayed"`
	ApronClean         bool       `json:"apron_clean"`
	ApronGoodCondition bool       `json:"apron_good_condition"`
	Notes              string     `json:"notes,omitempty"`
	SendStatus         SendStatus `json:"send_status"`
	ErrorMessage       string     `json:"error_message,omitempty"`
}

// SyncStats aggregates the outcome of one sweep.
type SyncStats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// StatusCounts summarizes sent vs not-yet-sent records in a filtered set.
type StatusCounts struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Unsent  int `json:"unsent"`
	Errored int `json:"errored"`
}
