package handler

import (
	"strconv"

	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type POSHandler struct {
	service service.POSService
}

func NewPOSHandler(s service.POSService) *POSHandler {
	return &POSHandler{service: s}
}

func (h *POSHandler) Checkout(c *fiber.Ctx) error {
	var cmd service.CheckoutCommand
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	sale, err := h.service.ProcessSale(&cmd, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale completed", "data": sale})
}

func (h *POSHandler) VoidSale(c *fiber.Ctx) error {
	saleID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	sale, err := h.service.VoidSale(saleID, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale voided", "data": sale})
}

func (h *POSHandler) RestoreSale(c *fiber.Ctx) error {
	saleID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	sale, err := h.service.RestoreSale(saleID, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale restored", "data": sale})
}

func (h *POSHandler) GetSale(c *fiber.Ctx) error {
	saleID, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	sale, err := h.service.GetSale(actorFrom(c).OrganizationID, saleID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sale)
}

func (h *POSHandler) ListSales(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	sales, err := h.service.ListSales(actorFrom(c).OrganizationID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sales)
}

// ListProducts serves the register screen's cached product listing for one
// location.
func (h *POSHandler) ListProducts(c *fiber.Ctx) error {
	locationID, err := parseUUIDParam(c, "locationId")
	if err != nil {
		return fail(c, err)
	}

	listings, err := h.service.ListPOSProducts(c.Context(), actorFrom(c).OrganizationID, locationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(listings)
}
