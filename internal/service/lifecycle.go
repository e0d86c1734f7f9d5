package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/events"
	"github.com/groovoo/service-desk/internal/repository"
)

// ParseStatusRequest reports whether raw names one of the fixed statuses. Anything else is
// not an error: callers treat it as "leave the status alone".
func ParseStatusRequest(raw string) (domain.TicketStatus, bool) {
	status := domain.TicketStatus(raw)
	return status, status.IsValid()
}

// ArchiveTicket hides the ticket from the dashboard. Any prior status is forgotten.
func (s *TicketService) ArchiveTicket(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.forceStatus(ctx, caller, ticketID, domain.TicketStatusArchived)
}

// ReopenTicket always lands on Open, whatever the ticket held before.
func (s *TicketService) ReopenTicket(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.forceStatus(ctx, caller, ticketID, domain.TicketStatusOpen)
}

func (s *TicketService) forceStatus(ctx context.Context, caller *domain.User, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	var change *domain.StatusChange
	err = s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		recorded, err := s.recordTransition(ctx, tx, caller, ticket, next)
		change = recorded
		return err
	})
	if err != nil {
		return nil, storeError(err, "ticket", ticket.ID)
	}
	if change != nil {
		ticket.Status = change.NewStatus
		ticket.History = append(ticket.History, *change)
	}
	s.publishStatusChange(ctx, change)
	return ticket, nil
}

// recordTransition writes next onto the ticket's status column and adds the audit entry,
// both inside tx. Naming the current status writes nothing and returns a nil change.
func (s *TicketService) recordTransition(ctx context.Context, tx repository.Tx, caller *domain.User, ticket *domain.Ticket, next domain.TicketStatus) (*domain.StatusChange, error) {
	if !next.IsValid() {
		return nil, fmt.Errorf("invalid ticket status %q", next)
	}
	if ticket.Status == next {
		return nil, nil
	}
	if err := tx.Tickets().UpdateStatus(ctx, ticket.ID, next); err != nil {
		return nil, err
	}

	change := &domain.StatusChange{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		ChangedBy: caller.ID,
		OldStatus: ticket.Status,
		NewStatus: next,
		CreatedAt: s.now().UTC(),
	}
	if err := tx.StatusChanges().Create(ctx, change); err != nil {
		return nil, err
	}
	return change, nil
}

func (s *TicketService) publishStatusChange(ctx context.Context, change *domain.StatusChange) {
	if change == nil {
		return
	}
	s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, change.TicketID, change.ChangedBy, change.CreatedAt,
		events.TicketStatusChangedPayload{OldStatus: change.OldStatus, NewStatus: change.NewStatus}))
}
