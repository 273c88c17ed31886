package model

// Operator is one entry in the reference directory mirrored from the
// server. The server owns this data; locally it is only used to enrich
// display (name lookup by scanned code).
type Operator struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UpdatedAt string `json:"updated_at"`
}
