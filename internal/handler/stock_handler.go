package handler

import (
	"strconv"

	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var req service.AdjustStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Adjust(&req, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock adjusted"})
}

func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var req service.TransferStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Transfer(&req, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock transferred"})
}

func (h *StockHandler) ReceivePurchase(c *fiber.Ctx) error {
	var req service.ReceivePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.ReceivePurchase(&req, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase received"})
}

func (h *StockHandler) SetReorder(c *fiber.Ctx) error {
	var req service.SetReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.SetReorder(&req, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reorder levels updated"})
}

func (h *StockHandler) List(c *fiber.Ctx) error {
	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid location_id"})
		}
		locationID = &id
	}

	records, err := h.service.List(actorFrom(c).OrganizationID, locationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(records)
}

func (h *StockHandler) ListLow(c *fiber.Ctx) error {
	records, err := h.service.ListLow(actorFrom(c).OrganizationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(records)
}

func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	var variantID *uuid.UUID
	if raw := c.Query("variant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid variant_id"})
		}
		variantID = &id
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	movements, err := h.service.ListMovements(actorFrom(c).OrganizationID, variantID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(movements)
}
