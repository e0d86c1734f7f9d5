package service

import (
	"strings"

	"github.com/groovoo/service-desk/internal/domain"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// TicketFields are the user-editable ticket attributes, as submitted.
type TicketFields struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	Tags          string `json:"tags"`
	Organizer     string `json:"organizer"`
	Event         string `json:"event"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ClientName    string `json:"client_name"`
	ClientContact string `json:"client_contact"`
	Channel       string `json:"channel"`
	Category      string `json:"category"`
}

// CreateTicketInput carries a new ticket and the files uploaded with it.
type CreateTicketInput struct {
	TicketFields
	Files []UploadedFile
}

// EditTicketInput replaces every editable field.
type EditTicketInput struct {
	TicketFields
}

// UpdateTicketInput is the combined detail-page action: each part is optional and applied
// independently.
type UpdateTicketInput struct {
	Comment string
	Status  string
	Files   []UploadedFile
}

// validFields is the result of a single validation pass over TicketFields.
type validFields struct {
	title         string
	description   string
	priority      domain.TicketPriority
	tags          string
	organizer     string
	event         string
	email         string
	phone         string
	clientName    string
	clientContact string
	channel       string
	category      string
}

// validate trims every field, defaults title and priority, and rejects missing required
// fields or an unknown priority. The error echoes the submitted values.
func (f TicketFields) validate() (validFields, error) {
	v := validFields{
		title:         strings.TrimSpace(f.Title),
		description:   strings.TrimSpace(f.Description),
		priority:      domain.TicketPriority(strings.TrimSpace(f.Priority)),
		tags:          strings.TrimSpace(f.Tags),
		organizer:     strings.TrimSpace(f.Organizer),
		event:         strings.TrimSpace(f.Event),
		email:         strings.TrimSpace(f.Email),
		phone:         strings.TrimSpace(f.Phone),
		clientName:    strings.TrimSpace(f.ClientName),
		clientContact: strings.TrimSpace(f.ClientContact),
		channel:       strings.TrimSpace(f.Channel),
		category:      strings.TrimSpace(f.Category),
	}

	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"description", v.description},
		{"client_name", v.clientName},
		{"client_contact", v.clientContact},
		{"channel", v.channel},
		{"category", v.category},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return validFields{}, apperrors.NewValidationError("required fields are missing", map[string]any{
			"missing":   missing,
			"submitted": f,
		})
	}

	if v.title == "" {
		v.title = domain.DefaultTicketTitle
	}
	if v.priority == "" {
		v.priority = domain.TicketPriorityLow
	}
	if !v.priority.IsValid() {
		return validFields{}, apperrors.NewValidationError("unknown priority", map[string]any{
			"invalid":   []string{"priority"},
			"submitted": f,
		})
	}
	return v, nil
}

func (v validFields) applyTo(t *domain.Ticket) {
	t.Title = v.title
	t.Description = v.description
	t.Priority = v.priority
	t.Tags = v.tags
	t.Organizer = v.organizer
	t.Event = v.event
	t.Email = v.email
	t.Phone = v.phone
	t.ClientName = v.clientName
	t.ClientContact = v.clientContact
	t.Channel = v.channel
	t.Category = v.category
}

// changedFields names the editable fields that differ between before and after.
func changedFields(before, after *domain.Ticket) []string {
	var changed []string
	add := func(name, a, b string) {
		if a != b {
			changed = append(changed, name)
		}
	}
	add("title", before.Title, after.Title)
	add("description", before.Description, after.Description)
	add("priority", string(before.Priority), string(after.Priority))
	add("tags", before.Tags, after.Tags)
	add("organizer", before.Organizer, after.Organizer)
	add("event", before.Event, after.Event)
	add("email", before.Email, after.Email)
	add("phone", before.Phone, after.Phone)
	add("client_name", before.ClientName, after.ClientName)
	add("client_contact", before.ClientContact, after.ClientContact)
	add("channel", before.Channel, after.Channel)
	add("category", before.Category, after.Category)
	return changed
}
