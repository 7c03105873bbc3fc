package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

type UserHandler struct {
	us  service.UserService
	ss  service.SocialService
	cfg config.Config
}

func NewUserHandler(cfg config.Config, us service.UserService, ss service.SocialService) *UserHandler {
	return &UserHandler{us: us, ss: ss, cfg: cfg}
}

// Profile returns the public profile card: counts plus whether the viewer
// already follows this user.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	profile, err := h.us.Profile(c.Context(), userID, GetUserID(c))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

func (h *UserHandler) ToggleFollow(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	following, followers, err := h.ss.ToggleFollow(c.Context(), GetUserID(c), userID)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"following": following,
		"followers": followers,
	})
}

func (h *UserHandler) Followers(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	limit, offset := pageParams(c)
	users, err := h.us.Followers(c.Context(), userID, limit, offset)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *UserHandler) Following(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	limit, offset := pageParams(c)
	users, err := h.us.Following(c.Context(), userID, limit, offset)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *UserHandler) UpdateName(c *fiber.Ctx) error {
	var req transfer.NameUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse body",
		})
	}

	if err := h.us.UpdateName(c.Context(), GetUserID(c), req.Name); err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"name": req.Name,
	})
}

func (h *UserHandler) UpdateAvatar(c *fiber.Ctx) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no file selected",
		})
	}

	avatarURL, err := h.us.UpdateAvatar(c.Context(), GetUserID(c), fh)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"avatar_url": avatarURL,
	})
}

// RemoveAccount deletes the caller's account and everything it owns, then
// ends the session.
func (h *UserHandler) RemoveAccount(c *fiber.Ctx) error {
	if err := h.us.RemoveUser(c.Context(), GetUserID(c)); err != nil {
		return ServiceError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		Path:     "/",
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}
