package domain

import "time"

// Comment is an immutable note on a ticket.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Attachment references a stored file. StorageKey is the opaque key returned by the blob store.
type Attachment struct {
	ID         string
	TicketID   string
	FileName   string
	StorageKey string
}
