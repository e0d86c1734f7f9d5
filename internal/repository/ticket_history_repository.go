package repository

import (
	"context"

	"github.com/groovoo/service-desk/internal/domain"
)

// StatusChangeRepository stores the status audit trail.
type StatusChangeRepository interface {
	Create(ctx context.Context, change *domain.StatusChange) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChange, error)
}

type statusChangeRepository struct {
	db DBTX
}

// NewStatusChangeRepository builds repository.
func NewStatusChangeRepository(db DBTX) StatusChangeRepository {
	return &statusChangeRepository{db: db}
}

func (r *statusChangeRepository) Create(ctx context.Context, change *domain.StatusChange) error {
	const query = `
        INSERT INTO ticket_status_changes (id, ticket_id, changed_by, old_status, new_status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		change.ID,
		change.TicketID,
		change.ChangedBy,
		change.OldStatus,
		change.NewStatus,
		change.CreatedAt,
	)
	return translate(err)
}

func (r *statusChangeRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChange, error) {
	const query = `
        SELECT id, ticket_id, changed_by, old_status, new_status, created_at
        FROM ticket_status_changes WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.StatusChange{}
	for rows.Next() {
		var change domain.StatusChange
		if err := rows.Scan(
			&change.ID,
			&change.TicketID,
			&change.ChangedBy,
			&change.OldStatus,
			&change.NewStatus,
			&change.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, change)
	}
	return result, rows.Err()
}
