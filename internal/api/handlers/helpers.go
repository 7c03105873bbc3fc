package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user_id").(int64)
	return id
}

func GetUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals("user").(*models.User)
	return u
}

func IsAdmin(c *fiber.Ctx) bool {
	u := GetUser(c)
	return u != nil && u.IsAdmin
}

// ServiceError maps a service failure onto its HTTP status. Unclassified
// errors stay opaque to the client.
func ServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrBanned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrUnsupportedFile):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong"})
	}
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", repository.DefaultLimit)
	if limit <= 0 {
		limit = repository.DefaultLimit
	}
	if limit > repository.MaxLimit {
		limit = repository.MaxLimit
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}
