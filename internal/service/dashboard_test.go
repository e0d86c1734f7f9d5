package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groovoo/service-desk/internal/domain"
)

func dashTicket(id string, status domain.TicketStatus, minute int, mutate func(*domain.Ticket)) domain.Ticket {
	t := domain.Ticket{
		ID:          id,
		Title:       "Ticket " + id,
		Description: "desc",
		ClientName:  "Client",
		Category:    "General",
		Status:      status,
		CreatedAt:   time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC),
		AssigneeID:  "u1",
	}
	if mutate != nil {
		mutate(&t)
	}
	return t
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestBuildDashboardExcludesArchivedAndSortsNewestFirst(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("a", domain.TicketStatusOpen, 1, nil),
		dashTicket("b", domain.TicketStatusArchived, 2, nil),
		dashTicket("c", domain.TicketStatusClosed, 3, nil),
	}
	d := BuildDashboard(owned, DashboardQuery{})
	assert.Equal(t, []string{"c", "a"}, ids(d.Tickets))
}

func TestBuildDashboardSearchIsCaseInsensitiveSubstringOverFourFields(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("title", domain.TicketStatusOpen, 1, func(t *domain.Ticket) { t.Title = "Printer JAM" }),
		dashTicket("client", domain.TicketStatusOpen, 2, func(t *domain.Ticket) { t.ClientName = "Jamie Corp" }),
		dashTicket("desc", domain.TicketStatusOpen, 3, func(t *domain.Ticket) { t.Description = "paper jammed" }),
		dashTicket("tags", domain.TicketStatusOpen, 4, func(t *domain.Ticket) { t.Tags = "jam, urgent" }),
		dashTicket("other", domain.TicketStatusOpen, 5, func(t *domain.Ticket) { t.Category = "jam" }),
		dashTicket("archived", domain.TicketStatusArchived, 6, func(t *domain.Ticket) { t.Title = "jam" }),
	}
	d := BuildDashboard(owned, DashboardQuery{Q: "  Jam "})
	assert.Equal(t, []string{"tags", "desc", "client", "title"}, ids(d.Tickets))
	assert.Equal(t, "Jam", d.Query.Q)
}

func TestBuildDashboardCategoryIsExact(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("a", domain.TicketStatusOpen, 1, func(t *domain.Ticket) { t.Category = "Billing" }),
		dashTicket("b", domain.TicketStatusOpen, 2, func(t *domain.Ticket) { t.Category = "billing" }),
		dashTicket("c", domain.TicketStatusOpen, 3, func(t *domain.Ticket) { t.Category = "Billing EU" }),
	}
	d := BuildDashboard(owned, DashboardQuery{Category: "Billing"})
	assert.Equal(t, []string{"a"}, ids(d.Tickets))
}

func TestBuildDashboardTagFilterIsLooseSubstring(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("vip", domain.TicketStatusOpen, 1, func(t *domain.Ticket) { t.Tags = "VIP" }),
		dashTicket("vips", domain.TicketStatusOpen, 2, func(t *domain.Ticket) { t.Tags = "rush, vips" }),
		dashTicket("none", domain.TicketStatusOpen, 3, func(t *domain.Ticket) { t.Tags = "rush" }),
	}
	d := BuildDashboard(owned, DashboardQuery{Tag: "vip"})
	assert.Equal(t, []string{"vips", "vip"}, ids(d.Tickets))
}

func TestBuildDashboardFiltersCombine(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("hit", domain.TicketStatusOpen, 1, func(t *domain.Ticket) {
			t.Title, t.Category, t.Tags = "VPN", "Network", "vip"
		}),
		dashTicket("wrong-cat", domain.TicketStatusOpen, 2, func(t *domain.Ticket) {
			t.Title, t.Category, t.Tags = "VPN", "Hardware", "vip"
		}),
		dashTicket("wrong-tag", domain.TicketStatusOpen, 3, func(t *domain.Ticket) {
			t.Title, t.Category, t.Tags = "VPN", "Network", "gold"
		}),
	}
	d := BuildDashboard(owned, DashboardQuery{Q: "vpn", Category: "Network", Tag: "VIP"})
	assert.Equal(t, []string{"hit"}, ids(d.Tickets))
}

func TestBuildDashboardListsDrawFromAllOwnedTickets(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("a", domain.TicketStatusOpen, 1, func(t *domain.Ticket) { t.Category, t.Tags = "Network", "VIP, rush" }),
		dashTicket("b", domain.TicketStatusArchived, 2, func(t *domain.Ticket) { t.Category, t.Tags = "Archive only", "rush,Gold" }),
		dashTicket("c", domain.TicketStatusOpen, 3, func(t *domain.Ticket) { t.Category = "Billing" }),
	}
	d := BuildDashboard(owned, DashboardQuery{Q: "nothing matches this"})
	assert.Empty(t, d.Tickets)
	assert.Equal(t, []string{"Archive only", "Billing", "Network"}, d.Categories)
	assert.Equal(t, []string{"Gold", "VIP", "rush"}, d.Tags)
}

func TestDistinctTags(t *testing.T) {
	tickets := []domain.Ticket{
		{Tags: "VIP, rush"},
		{Tags: "rush,Gold"},
		{Tags: ""},
		{Tags: " , ,vip "},
	}
	assert.Equal(t, []string{"Gold", "VIP", "rush", "vip"}, DistinctTags(tickets))
	assert.Empty(t, DistinctTags(nil))
}

func TestCountStatusesSumsToNonArchived(t *testing.T) {
	owned := []domain.Ticket{
		dashTicket("a", domain.TicketStatusOpen, 1, nil),
		dashTicket("b", domain.TicketStatusOpen, 2, nil),
		dashTicket("c", domain.TicketStatusResolved, 3, nil),
		dashTicket("d", domain.TicketStatusArchived, 4, nil),
	}
	d := BuildDashboard(owned, DashboardQuery{Q: "no match"})
	assert.Equal(t, []StatusCount{
		{domain.TicketStatusOpen, 2},
		{domain.TicketStatusWaiting, 0},
		{domain.TicketStatusResolved, 1},
		{domain.TicketStatusClosed, 0},
	}, d.StatusCounts)

	total := 0
	for _, c := range d.StatusCounts {
		total += c.Count
	}
	assert.Equal(t, 3, total)
}

func TestDashboardServiceScopesToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.create(t, f.alice, fieldsTitled("Alice printer"))
	f.create(t, f.bob, fieldsTitled("Bob printer"))

	d, err := f.dashboard.Dashboard(ctx, f.alice, DashboardQuery{Q: "printer"})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, ids(d.Tickets))
	assert.Equal(t, []string{"Hardware"}, d.Categories)
	assert.Equal(t, 1, d.StatusCounts[0].Count)
}
