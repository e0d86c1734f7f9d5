package dto

import (
	"time"

	"github.com/groovoo/service-desk/internal/domain"
)

// TicketFieldsRequest carries the editable ticket fields, as JSON or form values.
type TicketFieldsRequest struct {
	Title         string `json:"title" form:"title"`
	Description   string `json:"description" form:"description"`
	Priority      string `json:"priority" form:"priority"`
	Tags          string `json:"tags" form:"tags"`
	Organizer     string `json:"organizer" form:"organizer"`
	Event         string `json:"event" form:"event"`
	Email         string `json:"email" form:"email"`
	Phone         string `json:"phone" form:"phone"`
	ClientName    string `json:"client_name" form:"client_name"`
	ClientContact string `json:"client_contact" form:"client_contact"`
	Channel       string `json:"channel" form:"channel"`
	Category      string `json:"category" form:"category"`
}

// UpdateTicketRequest is the detail-page action. Files arrive as multipart "attachments".
type UpdateTicketRequest struct {
	Comment string `json:"comment" form:"comment"`
	Status  string `json:"status" form:"status"`
}

// TicketSummary is a dashboard or archive row.
type TicketSummary struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	ClientName string                `json:"client_name"`
	Category   string                `json:"category"`
	Channel    string                `json:"channel"`
	Priority   domain.TicketPriority `json:"priority"`
	Tags       string                `json:"tags"`
	Status     domain.TicketStatus   `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Priority      domain.TicketPriority  `json:"priority"`
	Tags          string                 `json:"tags"`
	TagList       []string               `json:"tag_list"`
	Organizer     string                 `json:"organizer"`
	Event         string                 `json:"event"`
	Email         string                 `json:"email"`
	Phone         string                 `json:"phone"`
	ClientName    string                 `json:"client_name"`
	ClientContact string                 `json:"client_contact"`
	Channel       string                 `json:"channel"`
	Category      string                 `json:"category"`
	Status        domain.TicketStatus    `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	AssigneeID    string                 `json:"assignee_id"`
	Comments      []CommentResponse      `json:"comments"`
	Attachments   []AttachmentResponse   `json:"attachments"`
	History       []StatusChangeResponse `json:"history"`
}

// CommentResponse represents a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// StatusChangeResponse is one audit entry.
type StatusChangeResponse struct {
	ChangedBy string              `json:"changed_by"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	CreatedAt time.Time           `json:"created_at"`
}
