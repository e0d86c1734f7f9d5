package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/events"
	"github.com/groovoo/service-desk/internal/repository"
	"github.com/groovoo/service-desk/internal/storage"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows for the ticket's assignee.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	history     repository.StatusChangeRepository
	tx          repository.Transactor
	blobs       storage.BlobStore
	allow       storage.AllowList
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles repositories and collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.StatusChangeRepository
	Transactor     repository.Transactor
	Blobs          storage.BlobStore
	AllowList      storage.AllowList
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Now            func() time.Time
}

var errNoBlobStore = errors.New("no blob store configured")

// UploadedFile is one file from a multipart request.
type UploadedFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		history:     deps.HistoryRepo,
		tx:          deps.Transactor,
		blobs:       deps.Blobs,
		allow:       deps.AllowList,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         clockOrDefault(deps.Now),
	}
}

// CreateTicket opens a ticket assigned to the caller and stores any accepted files. The
// ticket and its attachments are written together or not at all.
func (s *TicketService) CreateTicket(ctx context.Context, caller *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	fields, err := input.validate()
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		ID:         uuid.NewString(),
		Status:     domain.TicketStatusOpen,
		CreatedAt:  s.now().UTC(),
		AssigneeID: caller.ID,
	}
	fields.applyTo(ticket)

	staged, err := s.stageUploads(ctx, ticket, input.Files)
	if err != nil {
		return nil, err
	}
	err = s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return createAttachments(ctx, tx, staged)
	})
	if err != nil {
		s.discardUploads(ctx, staged)
		return nil, apperrors.NewInternalError(err)
	}
	ticket.Attachments = staged

	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, caller.ID, ticket.CreatedAt,
		events.TicketCreatedPayload{
			Title:       ticket.Title,
			Priority:    ticket.Priority,
			Category:    ticket.Category,
			Channel:     ticket.Channel,
			Attachments: len(ticket.Attachments),
		}))
	s.publishAttachments(ctx, caller, staged)
	return ticket, nil
}

// GetTicket returns the ticket with comments (oldest first), attachments and status history.
func (s *TicketService) GetTicket(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.loadChildren(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// EditTicket replaces the editable fields. Status, created_at and assignee never change here.
func (s *TicketService) EditTicket(ctx context.Context, caller *domain.User, ticketID string, input EditTicketInput) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	fields, err := input.validate()
	if err != nil {
		return nil, err
	}

	before := *ticket
	fields.applyTo(ticket)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, storeError(err, "ticket", ticket.ID)
	}

	if changed := changedFields(&before, ticket); len(changed) > 0 {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketUpdated, ticket.ID, caller.ID, s.now().UTC(),
			events.TicketUpdatedPayload{Fields: changed}))
	}
	if err := s.loadChildren(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket applies a comment, a status change and new files, each only when present.
// A status outside the fixed set is ignored rather than rejected. Either every write lands
// or none does.
func (s *TicketService) UpdateTicket(ctx context.Context, caller *domain.User, ticketID string, input UpdateTicketInput) (*domain.Ticket, error) {
	ticket, err := s.loadOwned(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}

	var comment *domain.Comment
	if content := strings.TrimSpace(input.Comment); content != "" {
		comment = &domain.Comment{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			AuthorID:  caller.ID,
			Content:   content,
			CreatedAt: s.now().UTC(),
		}
	}

	next := ticket.Status
	if input.Status != "" {
		if status, ok := ParseStatusRequest(input.Status); ok {
			next = status
		} else {
			s.logger.Debug("ignoring unknown status",
				zap.String("ticket_id", ticket.ID),
				zap.String("status", input.Status))
		}
	}

	staged, err := s.stageUploads(ctx, ticket, input.Files)
	if err != nil {
		return nil, err
	}

	var change *domain.StatusChange
	err = s.tx.WithinTx(ctx, func(tx repository.Tx) error {
		if comment != nil {
			if err := tx.Comments().Create(ctx, comment); err != nil {
				return err
			}
		}
		recorded, err := s.recordTransition(ctx, tx, caller, ticket, next)
		if err != nil {
			return err
		}
		change = recorded
		return createAttachments(ctx, tx, staged)
	})
	if err != nil {
		s.discardUploads(ctx, staged)
		return nil, storeError(err, "ticket", ticket.ID)
	}
	if change != nil {
		ticket.Status = change.NewStatus
	}

	if comment != nil {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketCommentAdded, ticket.ID, caller.ID, comment.CreatedAt,
			events.TicketCommentAddedPayload{CommentID: comment.ID, BodyPreview: stringPreview(comment.Content, 120)}))
	}
	s.publishStatusChange(ctx, change)
	s.publishAttachments(ctx, caller, staged)

	if err := s.loadChildren(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListArchived returns the caller's archived tickets, newest first.
func (s *TicketService) ListArchived(ctx context.Context, caller *domain.User) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		AssigneeID: caller.ID,
		Statuses:   []domain.TicketStatus{domain.TicketStatusArchived},
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// OpenAttachment returns an attachment of the caller's ticket and a reader over its bytes.
// The caller closes the reader.
func (s *TicketService) OpenAttachment(ctx context.Context, caller *domain.User, ticketID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	ticket, err := s.loadOwned(ctx, caller, ticketID)
	if err != nil {
		return nil, nil, err
	}
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, storeError(err, "attachment", attachmentID)
	}
	if attachment.TicketID != ticket.ID {
		return nil, nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
	}
	rc, err := s.blobs.Open(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return attachment, rc, nil
}

// loadOwned fetches the ticket and enforces the assignee-only guard. A missing ticket is
// NotFound; someone else's ticket is Forbidden.
func (s *TicketService) loadOwned(ctx context.Context, caller *domain.User, ticketID string) (*domain.Ticket, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError(err, "ticket", ticketID)
	}
	if !ticket.OwnedBy(caller.ID) {
		return nil, apperrors.NewForbidden("you do not have access to this ticket")
	}
	return ticket, nil
}

func (s *TicketService) loadChildren(ctx context.Context, ticket *domain.Ticket) error {
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	ticket.Comments = comments
	ticket.Attachments = attachments
	ticket.History = history
	return nil
}

// stageUploads writes the blob of every allowed file before any row is touched. Files with
// other extensions are skipped without error. If one blob fails, the ones already written are
// removed and the request fails.
func (s *TicketService) stageUploads(ctx context.Context, ticket *domain.Ticket, files []UploadedFile) ([]domain.Attachment, error) {
	var staged []domain.Attachment
	for _, file := range files {
		if file.Name == "" || file.Open == nil {
			continue
		}
		if !s.allow.Allowed(file.Name) {
			s.logger.Info("skipping upload with unsupported extension",
				zap.String("ticket_id", ticket.ID),
				zap.String("file_name", file.Name))
			continue
		}
		if s.blobs == nil {
			return nil, apperrors.NewInternalError(errNoBlobStore)
		}

		key, err := s.storeBlob(ctx, file)
		if err != nil {
			s.discardUploads(ctx, staged)
			return nil, apperrors.NewInternalError(fmt.Errorf("store upload %q: %w", file.Name, err))
		}
		staged = append(staged, domain.Attachment{
			ID:         uuid.NewString(),
			TicketID:   ticket.ID,
			FileName:   storage.SecureFilename(file.Name),
			StorageKey: key,
		})
	}
	return staged, nil
}

// discardUploads removes blobs whose rows were never committed.
func (s *TicketService) discardUploads(ctx context.Context, staged []domain.Attachment) {
	for _, attachment := range staged {
		if err := s.blobs.Delete(context.WithoutCancel(ctx), attachment.StorageKey); err != nil {
			s.logger.Warn("failed to remove orphaned upload",
				zap.String("ticket_id", attachment.TicketID),
				zap.String("storage_key", attachment.StorageKey),
				zap.Error(err))
		}
	}
}

func createAttachments(ctx context.Context, tx repository.Tx, staged []domain.Attachment) error {
	for i := range staged {
		if err := tx.Attachments().Create(ctx, &staged[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TicketService) publishAttachments(ctx context.Context, caller *domain.User, attachments []domain.Attachment) {
	for _, attachment := range attachments {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketAttachmentAdded, attachment.TicketID, caller.ID, s.now().UTC(),
			events.TicketAttachmentAddedPayload{AttachmentID: attachment.ID, FileName: attachment.FileName}))
	}
}

func (s *TicketService) storeBlob(ctx context.Context, file UploadedFile) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return s.blobs.Store(ctx, rc, file.Name)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
