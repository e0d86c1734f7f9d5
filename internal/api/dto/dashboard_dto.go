package dto

import "github.com/groovoo/service-desk/internal/domain"

// StatusCountResponse is one dashboard counter.
type StatusCountResponse struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}

// DashboardQueryResponse echoes the applied filters.
type DashboardQueryResponse struct {
	Q        string `json:"q"`
	Category string `json:"category"`
	Tag      string `json:"tag"`
}

// DashboardResponse is the dashboard view model.
type DashboardResponse struct {
	Tickets      []TicketSummary        `json:"tickets"`
	Categories   []string               `json:"categories"`
	Tags         []string               `json:"tags"`
	StatusCounts []StatusCountResponse  `json:"status_counts"`
	Query        DashboardQueryResponse `json:"query"`
}
