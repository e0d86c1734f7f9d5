package service

import (
	"context"
	"sort"
	"strings"

	"github.com/groovoo/service-desk/internal/domain"
	"github.com/groovoo/service-desk/internal/repository"
	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

// DashboardQuery holds the optional dashboard filters. Blank values are ignored.
type DashboardQuery struct {
	Q        string `json:"q"`
	Category string `json:"category"`
	Tag      string `json:"tag"`
}

// StatusCount is one dashboard counter.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

// Dashboard is the view model behind the main page.
type Dashboard struct {
	Tickets      []domain.Ticket
	Categories   []string
	Tags         []string
	StatusCounts []StatusCount
	Query        DashboardQuery
}

// BuildDashboard filters the caller's tickets. owned must hold every ticket assigned to the
// caller, in any status and order.
//
// Search is a case-insensitive substring match over title, client name, description and the
// raw tags string. Category is compared exactly; tag is a case-insensitive substring of the
// tags string, so "vip" also matches "vips". Categories and tags are drawn from all owned
// tickets, archived included, while counters and the list skip archived tickets.
func BuildDashboard(owned []domain.Ticket, query DashboardQuery) Dashboard {
	query = DashboardQuery{
		Q:        strings.TrimSpace(query.Q),
		Category: strings.TrimSpace(query.Category),
		Tag:      strings.TrimSpace(query.Tag),
	}
	q := strings.ToLower(query.Q)
	tag := strings.ToLower(query.Tag)

	tickets := make([]domain.Ticket, 0, len(owned))
	for _, t := range owned {
		if t.Status == domain.TicketStatusArchived {
			continue
		}
		if q != "" && !matchesSearch(t, q) {
			continue
		}
		if query.Category != "" && t.Category != query.Category {
			continue
		}
		if tag != "" && !strings.Contains(strings.ToLower(t.Tags), tag) {
			continue
		}
		tickets = append(tickets, t)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})

	return Dashboard{
		Tickets:      tickets,
		Categories:   DistinctCategories(owned),
		Tags:         DistinctTags(owned),
		StatusCounts: CountStatuses(owned),
		Query:        query,
	}
}

func matchesSearch(t domain.Ticket, lowered string) bool {
	for _, field := range []string{t.Title, t.ClientName, t.Description, t.Tags} {
		if strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

// DistinctCategories returns the sorted distinct category values.
func DistinctCategories(tickets []domain.Ticket) []string {
	seen := make(map[string]struct{})
	for _, t := range tickets {
		seen[t.Category] = struct{}{}
	}
	return sortedKeys(seen)
}

// SplitTags splits a comma-separated tags string into trimmed, non-empty labels.
func SplitTags(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DistinctTags collects every tag across tickets, deduplicated by exact match after
// trimming and sorted bytewise, so case is preserved and upper case sorts first.
func DistinctTags(tickets []domain.Ticket) []string {
	seen := make(map[string]struct{})
	for _, t := range tickets {
		for _, tag := range SplitTags(t.Tags) {
			seen[tag] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// CountStatuses counts tickets per dashboard status, in display order, zero included.
func CountStatuses(tickets []domain.Ticket) []StatusCount {
	statuses := domain.CountedStatuses()
	index := make(map[domain.TicketStatus]int, len(statuses))
	counts := make([]StatusCount, len(statuses))
	for i, status := range statuses {
		index[status] = i
		counts[i] = StatusCount{Status: status}
	}
	for _, t := range tickets {
		if i, ok := index[t.Status]; ok {
			counts[i].Count++
		}
	}
	return counts
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DashboardService loads the caller's tickets and runs BuildDashboard over them.
type DashboardService struct {
	tickets repository.TicketRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets}
}

// Dashboard builds the dashboard for caller.
func (s *DashboardService) Dashboard(ctx context.Context, caller *domain.User, query DashboardQuery) (*Dashboard, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	owned, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{AssigneeID: caller.ID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	dashboard := BuildDashboard(owned, query)
	return &dashboard, nil
}
