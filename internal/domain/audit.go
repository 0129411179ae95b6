package domain

import "time"

// AuditStatus classifies the outcome recorded in an audit entry
type AuditStatus string

const (
	AuditSuccess AuditStatus = "SUCCESS"
	AuditFailure AuditStatus = "FAILURE"
	AuditWarning AuditStatus = "WARNING"
)

// AuditEntry is an append-only record of a security-relevant action.
// UserID is nil for unauthenticated events such as failed logins.
type AuditEntry struct {
	ID           string            `json:"id" db:"id"`
	UserID       *string           `json:"user_id" db:"user_id"`
	Action       string            `json:"action" db:"action"`
	ResourceType string            `json:"resource_type" db:"resource_type"`
	ResourceID   *string           `json:"resource_id" db:"resource_id"`
	Details      map[string]string `json:"details" db:"details"`
	IPAddress    string            `json:"ip_address" db:"ip_address"`
	UserAgent    string            `json:"user_agent" db:"user_agent"`
	Status       AuditStatus       `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}
