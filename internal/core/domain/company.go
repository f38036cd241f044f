package domain

import "time"

// Company is a tenant.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Website   *string   `json:"website,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCompany carries the fields written when a company is created.
type NewCompany struct {
	Name    string
	Email   *string
	Website *string
	Address *string
}

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	Kind      string
	UserID    int64
	Email     string
	Outcome   string
	ClientIP  string
	Detail    string
	Timestamp time.Time
}

// Audit event kinds.
const (
	EventSignup         = "signup"
	EventConfirm        = "confirm"
	EventLogin          = "login"
	EventResetRequest   = "password_reset_request"
	EventPasswordChange = "password_change"
	EventRoleChange     = "role_change"
	EventAccountDelete  = "account_delete"
)
