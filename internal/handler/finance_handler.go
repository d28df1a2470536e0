package handler

import (
	"time"

	"dealio-backend/internal/model"
	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type FinanceHandler struct {
	service service.FinanceService
}

func NewFinanceHandler(s service.FinanceService) *FinanceHandler {
	return &FinanceHandler{service: s}
}

func (h *FinanceHandler) CreateExpense(c *fiber.Ctx) error {
	var expense model.Expense
	if err := c.BodyParser(&expense); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateExpense(&expense, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Expense recorded", "data": expense})
}

func (h *FinanceHandler) UpdateExpense(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var expense model.Expense
	if err := c.BodyParser(&expense); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateExpense(id, &expense, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Expense updated", "data": updated})
}

func (h *FinanceHandler) DeleteExpense(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if err := h.service.DeleteExpense(id, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Expense deleted"})
}

func (h *FinanceHandler) ListExpenses(c *fiber.Ctx) error {
	var startDate, endDate *time.Time
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid start date, use YYYY-MM-DD"})
		}
		startDate = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid end date, use YYYY-MM-DD"})
		}
		// include the whole end day
		t = t.Add(24*time.Hour - time.Nanosecond)
		endDate = &t
	}

	expenses, err := h.service.ListExpenses(actorFrom(c).OrganizationID, startDate, endDate)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(expenses)
}

func (h *FinanceHandler) Summary(c *fiber.Ctx) error {
	rangeParam := c.Query("range", "7d")
	now := time.Now()
	var startDate time.Time

	switch rangeParam {
	case "7d":
		startDate = now.AddDate(0, 0, -7)
	case "1m":
		startDate = now.AddDate(0, -1, 0)
	case "3m":
		startDate = now.AddDate(0, -3, 0)
	default:
		startDate = now.AddDate(0, 0, -7)
	}

	summary, err := h.service.Summary(actorFrom(c).OrganizationID, startDate, now)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(summary)
}
