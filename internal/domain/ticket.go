package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "Open"
	TicketStatusWaiting  TicketStatus = "Waiting"
	TicketStatusResolved TicketStatus = "Resolved"
	TicketStatusClosed   TicketStatus = "Closed"
	TicketStatusArchived TicketStatus = "Archived"
)

// ValidStatuses returns every status a ticket may hold.
func ValidStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusWaiting,
		TicketStatusResolved,
		TicketStatusClosed,
		TicketStatusArchived,
	}
}

// CountedStatuses returns the statuses shown as dashboard counters, in display order.
// Archived tickets are not counted.
func CountedStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusWaiting,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// IsValid reports whether s is a known status.
func (s TicketStatus) IsValid() bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "Low"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityHigh   TicketPriority = "High"
)

// IsValid reports whether p is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	default:
		return false
	}
}

// DefaultTicketTitle replaces a blank title at creation.
const DefaultTicketTitle = "Untitled ticket"

// Ticket is the aggregate for support requests raised on behalf of a client.
//
// Tags is kept as the raw comma-separated string the staff member typed; the dashboard
// splits it when it needs individual labels.
type Ticket struct {
	ID            string
	Title         string
	Description   string
	Priority      TicketPriority
	Tags          string
	Organizer     string
	Event         string
	Email         string
	Phone         string
	ClientName    string
	ClientContact string
	Channel       string
	Category      string
	Status        TicketStatus
	CreatedAt     time.Time
	AssigneeID    string

	Comments    []Comment
	Attachments []Attachment
	History     []StatusChange
}

// OwnedBy reports whether userID is the ticket's assignee.
func (t *Ticket) OwnedBy(userID string) bool {
	return t != nil && t.AssigneeID == userID
}
