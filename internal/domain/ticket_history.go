package domain

import "time"

// StatusChange is an immutable audit trail entry written for each effective transition.
type StatusChange struct {
	ID        string
	TicketID  string
	ChangedBy string
	OldStatus TicketStatus
	NewStatus TicketStatus
	CreatedAt time.Time
}
