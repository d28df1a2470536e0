package handler

import (
	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(actorFrom(c).OrganizationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

func (h *ReportHandler) SalesChart(c *fiber.Ctx) error {
	chart, err := h.service.SalesChart(actorFrom(c).OrganizationID, c.Query("range", "7d"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(chart)
}

func (h *ReportHandler) MovementChart(c *fiber.Ctx) error {
	chart, err := h.service.MovementChart(actorFrom(c).OrganizationID, c.Query("range", "7d"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(chart)
}
