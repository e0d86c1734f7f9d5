package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/export"
	"github.com/groovoo/service-desk/internal/service"
)

// ExportHandler serves open-ticket downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{service: exportService}
}

// CSV GET /export/csv.
func (h *ExportHandler) CSV(c *fiber.Ctx) error {
	return h.download(c, export.FormatCSV)
}

// Markdown GET /export/markdown.
func (h *ExportHandler) Markdown(c *fiber.Ctx) error {
	return h.download(c, export.FormatMarkdown)
}

func (h *ExportHandler) download(c *fiber.Ctx, format export.Format) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	file, err := h.service.Export(c.UserContext(), caller, format)
	if err != nil {
		return err
	}
	c.Attachment(file.Filename)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Body)
}
