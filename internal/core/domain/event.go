package domain

import "time"

// AccountEventType names a lifecycle transition recorded in the audit trail.
type AccountEventType string

const (
	EventRegistered      AccountEventType = "registered"
	EventLoggedIn        AccountEventType = "logged_in"
	EventRenamed         AccountEventType = "renamed"
	EventPasswordChanged AccountEventType = "password_changed"
	EventRemoved         AccountEventType = "removed"
	EventRoleChanged     AccountEventType = "role_changed"
)

// AccountEvent is an audit record of a committed lifecycle operation.
type AccountEvent struct {
	AccountID AccountID
	Type      AccountEventType
	ActorID   AccountID // zero when the account acted on itself
	At        time.Time
	Detail    string
}
