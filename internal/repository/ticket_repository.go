package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/groovoo/service-desk/internal/domain"
)

// TicketFilter narrows ticket listings. AssigneeID is always required; the store itself
// is ownership-agnostic and callers decide whose tickets they ask for.
type TicketFilter struct {
	AssigneeID      string
	Statuses        []domain.TicketStatus
	ExcludeStatuses []domain.TicketStatus
	// SortAscending orders by created_at oldest first; the default is newest first.
	SortAscending bool
}

// Matches reports whether ticket satisfies the filter.
func (f TicketFilter) Matches(ticket *domain.Ticket) bool {
	if ticket.AssigneeID != f.AssigneeID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, ticket.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, ticket.Status) {
		return false
	}
	return true
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update overwrites the editable fields. Status, created_at and assignee are untouched.
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, title, description, priority, tags, organizer, event, email, phone,
               client_name, client_contact, channel, category, status, created_at, assignee_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Tags,
		ticket.Organizer,
		ticket.Event,
		ticket.Email,
		ticket.Phone,
		ticket.ClientName,
		ticket.ClientContact,
		ticket.Channel,
		ticket.Category,
		ticket.Status,
		ticket.CreatedAt,
		ticket.AssigneeID,
	)
	return translate(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, priority=$3, tags=$4, organizer=$5, event=$6,
            email=$7, phone=$8, client_name=$9, client_contact=$10, channel=$11, category=$12
        WHERE id=$13`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Tags,
		ticket.Organizer,
		ticket.Event,
		ticket.Email,
		ticket.Phone,
		ticket.ClientName,
		ticket.ClientContact,
		ticket.Channel,
		ticket.Category,
		ticket.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE tickets SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"assignee_id=$1"}
	args := []any{filter.AssigneeID}

	if len(filter.Statuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(&args, filter.Statuses)))
	}
	if len(filter.ExcludeStatuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status NOT IN (%s)", placeholders(&args, filter.ExcludeStatuses)))
	}

	order := "DESC"
	if filter.SortAscending {
		order = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at %s, id %s`,
		ticketColumns, strings.Join(clauses, " AND "), order, order)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func placeholders(args *[]any, statuses []domain.TicketStatus) string {
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		*args = append(*args, status)
		parts[i] = fmt.Sprintf("$%d", len(*args))
	}
	return strings.Join(parts, ",")
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Tags,
		&ticket.Organizer,
		&ticket.Event,
		&ticket.Email,
		&ticket.Phone,
		&ticket.ClientName,
		&ticket.ClientContact,
		&ticket.Channel,
		&ticket.Category,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.AssigneeID,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
