package handler

import (
	"dealio-backend/internal/service"
	"dealio-backend/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actorFrom rebuilds the acting member from the context set by RequireAuth.
func actorFrom(c *fiber.Ctx) service.Actor {
	var a service.Actor
	if v, ok := c.Locals("user_id").(string); ok {
		a.ID, _ = uuid.Parse(v)
	}
	if v, ok := c.Locals("org_id").(string); ok {
		a.OrganizationID, _ = uuid.Parse(v)
	}
	if v, ok := c.Locals("user_name").(string); ok {
		a.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		a.Email = v
	}
	if v, ok := c.Locals("user_role").(string); ok {
		a.Role = v
	}
	return a
}

// fail renders an application error with its taxonomy status code.
func fail(c *fiber.Ctx, err error) error {
	appErr := apperr.From(err)
	body := fiber.Map{"error": appErr.Message}
	if len(appErr.FieldErrors) > 0 {
		body["fieldErrors"] = appErr.FieldErrors
	}
	return c.Status(appErr.HTTPStatus()).JSON(body)
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}
