package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

type SocialHandler struct {
	ss service.SocialService
}

func NewSocialHandler(ss service.SocialService) *SocialHandler {
	return &SocialHandler{ss: ss}
}

// ToggleLike likes the post, or unlikes it when the caller already did.
func (h *SocialHandler) ToggleLike(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	liked, count, err := h.ss.ToggleLike(c.Context(), GetUserID(c), postID)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"liked":      liked,
		"like_count": count,
	})
}

func (h *SocialHandler) ToggleWatchlist(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	watchlisted, err := h.ss.ToggleWatchlist(c.Context(), GetUserID(c), postID)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"watchlisted": watchlisted,
	})
}

// RecordView marks the post watched for the caller. Re-watching refreshes the
// timestamp so the post moves to the front of the history feed.
func (h *SocialHandler) RecordView(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	if err := h.ss.RecordView(c.Context(), GetUserID(c), postID); err != nil {
		return ServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *SocialHandler) AddComment(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse body",
		})
	}

	comment, err := h.ss.AddComment(c.Context(), GetUserID(c), postID, req.Content)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (h *SocialHandler) ListComments(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	comments, err := h.ss.ListComments(c.Context(), postID, GetUserID(c))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}

func (h *SocialHandler) RemoveComment(c *fiber.Ctx) error {
	commentID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid comment id"})
	}

	err := h.ss.RemoveComment(c.Context(), GetUserID(c), commentID, IsAdmin(c))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}
