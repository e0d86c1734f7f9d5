package export

import (
	"fmt"
	"strings"

	"github.com/groovoo/service-desk/internal/domain"
)

const markdownTitle = "# Open Tickets"

// RenderMarkdown writes one "# Open Tickets" heading, then a "## Ticket {id} - {title}"
// section per ticket with a fixed bullet list. No tickets yields the heading alone.
func RenderMarkdown(tickets []domain.Ticket) string {
	lines := []string{markdownTitle}
	for _, t := range tickets {
		lines = append(lines,
			"",
			fmt.Sprintf("## Ticket %s - %s", t.ID, oneLine(t.Title)),
			bullet("Client", t.ClientName),
			bullet("Contact", t.ClientContact),
			bullet("Channel", t.Channel),
			bullet("Category", t.Category),
			bullet("Description", t.Description),
			bullet("Created At", timestamp(t.CreatedAt)),
			bullet("Status", string(t.Status)),
		)
	}
	return strings.Join(lines, "\n")
}

func bullet(label, value string) string {
	return fmt.Sprintf("- **%s:** %s", label, oneLine(value))
}

// newlines inside a value would break the list item
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func oneLine(s string) string {
	return lineBreaks.Replace(s)
}
