// Package export renders ticket collections as downloadable text. Formatters are pure: the
// same tickets always produce the same bytes.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/groovoo/service-desk/internal/domain"
)

// Format names a supported export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts "csv", "markdown" and "md", case-insensitively.
func ParseFormat(raw string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv":
		return FormatCSV, true
	case "markdown", "md":
		return FormatMarkdown, true
	default:
		return "", false
	}
}

// Extension is the file extension used in download names.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ContentType is the MIME type of the rendered payload.
func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// Render dispatches to the formatter for f.
func Render(f Format, tickets []domain.Ticket) ([]byte, error) {
	switch f {
	case FormatCSV:
		return RenderCSV(tickets)
	case FormatMarkdown:
		return []byte(RenderMarkdown(tickets)), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

// Filename builds tickets_open_{YYYYMMDDHHMMSS}.{ext} from the UTC generation time.
func Filename(f Format, generatedAt time.Time) string {
	return fmt.Sprintf("tickets_open_%s.%s", generatedAt.UTC().Format("20060102150405"), f.Extension())
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
