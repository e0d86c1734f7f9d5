package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/auth"
	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/service"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// attachmentsField is the multipart field carrying uploaded files.
const attachmentsField = "attachments"

func callerFromContext(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// uploadedFiles returns the files of the "attachments" field, or none for non-multipart
// requests.
func uploadedFiles(c *fiber.Ctx) ([]service.UploadedFile, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("invalid multipart payload", nil)
	}
	headers := form.File[attachmentsField]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, service.UploadedFile{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return files, nil
}
