package domain

import "time"

// Outcome is how an audited call ended. It is stored in Metadata as "outcome=<value>".
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeDenied Outcome = "denied"
	OutcomeError  Outcome = "error"
)

// Metadata renders o for the metadata column.
func (o Outcome) Metadata() string { return "outcome=" + string(o) }

// AuditLog is one row of audit_logs. Events without an organization (sign-up, login, product calls
// addressed by product id) carry the "_system" org id.
type AuditLog struct {
	ID     string
	OrgID  string
	UserID string // empty for failed logins of unknown accounts
	// Action and Resource come from the RPC name, e.g. "create"/"product" or "user_added"/"user".
	Action   string
	Resource string
	IP       string
	// Metadata is free text: an Outcome for interceptor rows, event details for auth rows.
	Metadata  string
	CreatedAt time.Time
}
