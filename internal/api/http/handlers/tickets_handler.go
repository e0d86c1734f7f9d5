package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/api/dto"
	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/service"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints for the assignee.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Accepts JSON, urlencoded or multipart with "attachments".
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TicketFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.CreateTicketInput{
		TicketFields: ticketFields(req),
		Files:        files,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListArchived GET /tickets/archived.
func (h *TicketsHandler) ListArchived(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListArchived(c.UserContext(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateTicket POST /tickets/:id. Comment, status and files are each optional.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), caller, c.Params("id"), service.UpdateTicketInput{
		Comment: req.Comment,
		Status:  req.Status,
		Files:   files,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// EditTicket PUT /tickets/:id.
func (h *TicketsHandler) EditTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TicketFieldsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.EditTicket(c.UserContext(), caller, c.Params("id"), service.EditTicketInput{
		TicketFields: ticketFields(req),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ArchiveTicket POST /tickets/:id/archive.
func (h *TicketsHandler) ArchiveTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ArchiveTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ReopenTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// DownloadAttachment GET /tickets/:id/attachments/:attachmentID.
func (h *TicketsHandler) DownloadAttachment(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	attachment, rc, err := h.service.OpenAttachment(c.UserContext(), caller, c.Params("id"), c.Params("attachmentID"))
	if err != nil {
		return err
	}
	c.Attachment(attachment.FileName)
	return c.SendStream(rc)
}

func ticketFields(req dto.TicketFieldsRequest) service.TicketFields {
	return service.TicketFields{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Tags:          req.Tags,
		Organizer:     req.Organizer,
		Event:         req.Event,
		Email:         req.Email,
		Phone:         req.Phone,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		Channel:       req.Channel,
		Category:      req.Category,
	}
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Title:      ticket.Title,
		ClientName: ticket.ClientName,
		Category:   ticket.Category,
		Channel:    ticket.Channel,
		Priority:   ticket.Priority,
		Tags:       ticket.Tags,
		Status:     ticket.Status,
		CreatedAt:  ticket.CreatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	resp := dto.TicketDetailResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Priority:      ticket.Priority,
		Tags:          ticket.Tags,
		TagList:       nonNil(service.SplitTags(ticket.Tags)),
		Organizer:     ticket.Organizer,
		Event:         ticket.Event,
		Email:         ticket.Email,
		Phone:         ticket.Phone,
		ClientName:    ticket.ClientName,
		ClientContact: ticket.ClientContact,
		Channel:       ticket.Channel,
		Category:      ticket.Category,
		Status:        ticket.Status,
		CreatedAt:     ticket.CreatedAt,
		AssigneeID:    ticket.AssigneeID,
		Comments:      make([]dto.CommentResponse, 0, len(ticket.Comments)),
		Attachments:   make([]dto.AttachmentResponse, 0, len(ticket.Attachments)),
		History:       make([]dto.StatusChangeResponse, 0, len(ticket.History)),
	}
	for _, comment := range ticket.Comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
		})
	}
	for _, att := range ticket.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:       att.ID,
			FileName: att.FileName,
			URL:      fmt.Sprintf("/tickets/%s/attachments/%s", ticket.ID, att.ID),
		})
	}
	for _, change := range ticket.History {
		resp.History = append(resp.History, dto.StatusChangeResponse{
			ChangedBy: change.ChangedBy,
			OldStatus: change.OldStatus,
			NewStatus: change.NewStatus,
			CreatedAt: change.CreatedAt,
		})
	}
	return resp
}
