package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/groovoo/service-desk/internal/api/dto"
	"github.com/groovoo/service-desk/internal/service"
)

// DashboardHandler serves the filtered ticket overview.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Dashboard GET /dashboard?q=&category=&tag=.
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	dashboard, err := h.service.Dashboard(c.UserContext(), caller, service.DashboardQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
	})
	if err != nil {
		return err
	}

	counts := make([]dto.StatusCountResponse, 0, len(dashboard.StatusCounts))
	for _, sc := range dashboard.StatusCounts {
		counts = append(counts, dto.StatusCountResponse{Status: sc.Status, Count: sc.Count})
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Tickets:      ticketSummaries(dashboard.Tickets),
		Categories:   nonNil(dashboard.Categories),
		Tags:         nonNil(dashboard.Tags),
		StatusCounts: counts,
		Query: dto.DashboardQueryResponse{
			Q:        dashboard.Query.Q,
			Category: dashboard.Query.Category,
			Tag:      dashboard.Query.Tag,
		},
	}})
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
