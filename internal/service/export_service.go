package service

import (
	"context"
	"time"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/export"
	"github.com/groovoo/service-desk/internal/repository"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the caller's open tickets, oldest first. Dashboard filters do not
// apply to exports.
type ExportService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewExportService constructs the service.
func NewExportService(tickets repository.TicketRepository, now func() time.Time) *ExportService {
	return &ExportService{tickets: tickets, now: clockOrDefault(now)}
}

// Export renders format for caller.
func (s *ExportService) Export(ctx context.Context, caller *domain.User, format export.Format) (*ExportFile, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	f, ok := export.ParseFormat(string(format))
	if !ok {
		return nil, apperrors.NewValidationError("unsupported export format", map[string]any{
			"submitted": map[string]any{"format": string(format)},
		})
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AssigneeID:    caller.ID,
		Statuses:      []domain.TicketStatus{domain.TicketStatusOpen},
		SortAscending: true,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	body, err := export.Render(f, tickets)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &ExportFile{
		Filename:    export.Filename(f, s.now()),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}
