package handler

import (
	"strconv"

	"dealio-backend/internal/model"
	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AttendanceHandler struct {
	service service.AttendanceService
}

func NewAttendanceHandler(s service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: s}
}

func (h *AttendanceHandler) ClockIn(c *fiber.Ctx) error {
	var req service.ClockInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	row, err := h.service.ClockIn(&req, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Clocked in", "data": row})
}

func (h *AttendanceHandler) ClockOut(c *fiber.Ctx) error {
	var req service.ClockOutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	row, err := h.service.ClockOut(&req, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Clocked out", "data": row})
}

func (h *AttendanceHandler) History(c *fiber.Ctx) error {
	memberID, err := parseUUIDParam(c, "memberId")
	if err != nil {
		return fail(c, err)
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	rows, err := h.service.History(memberID, limit, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rows)
}

func (h *AttendanceHandler) ListAll(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor.Role == model.RoleCashier {
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	rows, err := h.service.ListAll(actor.OrganizationID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rows)
}
