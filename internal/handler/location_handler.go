package handler

import (
	"dealio-backend/internal/model"
	"dealio-backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LocationHandler struct {
	service service.LocationService
}

func NewLocationHandler(s service.LocationService) *LocationHandler {
	return &LocationHandler{service: s}
}

func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var location model.Location
	if err := c.BodyParser(&location); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.Create(&location, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Location created", "data": location})
}

func (h *LocationHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	var location model.Location
	if err := c.BodyParser(&location); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.Update(id, &location, actorFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location updated", "data": updated})
}

func (h *LocationHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	if err := h.service.Delete(id, actorFrom(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location deleted"})
}

func (h *LocationHandler) GetAll(c *fiber.Ctx) error {
	locations, err := h.service.GetAll(actorFrom(c).OrganizationID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(locations)
}

func (h *LocationHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return fail(c, err)
	}

	location, err := h.service.GetByID(actorFrom(c).OrganizationID, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(location)
}
