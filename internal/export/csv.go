package export

import (
	"bytes"
	"encoding/csv"

	"github.com/groovoo/service-desk/internal/domain"
)

var csvHeader = []string{"ID", "Title", "Client", "Contact", "Channel", "Category", "Description", "Status", "Created-at"}

// RenderCSV writes a header row and one row per ticket, in the given order.
func RenderCSV(tickets []domain.Ticket) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if err := w.Write([]string{
			t.ID,
			t.Title,
			t.ClientName,
			t.ClientContact,
			t.Channel,
			t.Category,
			t.Description,
			string(t.Status),
			timestamp(t.CreatedAt),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
