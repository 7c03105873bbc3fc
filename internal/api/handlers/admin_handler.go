package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/service"
)

type AdminHandler struct {
	as service.AdminService
	ps service.PostService
}

func NewAdminHandler(as service.AdminService, ps service.PostService) *AdminHandler {
	return &AdminHandler{as: as, ps: ps}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	users, err := h.as.ListUsers(c.Context(), c.Query("q"), limit, offset)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

// SetUserFlags grants or revokes the moderation flags in one shot. The
// request body carries the full desired flag set.
func (h *AdminHandler) SetUserFlags(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	var flags repository.UserFlags
	if err := c.BodyParser(&flags); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse body",
		})
	}

	if err := h.as.SetUserFlags(c.Context(), GetUserID(c), userID, flags); err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

func (h *AdminHandler) RemoveUser(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	if err := h.as.RemoveUser(c.Context(), GetUserID(c), userID); err != nil {
		return ServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

// ListPosts lets moderators browse any author's posts, drafts included.
func (h *AdminHandler) ListPosts(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{
		ViewerID: GetUserID(c),
		Status:   c.Query("status", repository.StatusAny),
		Search:   c.Query("q"),
		AuthorID: int64(c.QueryInt("user", 0)),
		Sort:     c.Query("sort"),
	}
	opts.Limit, opts.Offset = pageParams(c)

	posts, err := h.ps.ListPosts(c.Context(), opts)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *AdminHandler) RemovePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	if err := h.ps.Remove(c.Context(), postID, GetUserID(c), "", true); err != nil {
		return ServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
