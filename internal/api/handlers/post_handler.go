package handlers

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/queue"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/internal/transfer"
)

type PostHandler struct {
	ps          service.PostService
	as          service.AuthService
	cfg         config.Config
	AsynqClient *asynq.Client
}

func NewPostHandler(cfg config.Config, ps service.PostService, as service.AuthService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{ps: ps, as: as, cfg: cfg, AsynqClient: asynqClient}
}

// ListPosts serves the public feed: trending or latest, filtered by search
// text, format, kind or author.
func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{
		ViewerID: GetUserID(c),
		Sort:     c.Query("sort"),
		Search:   c.Query("q"),
		Format:   c.Query("format"),
		Kind:     c.Query("kind"),
		AuthorID: int64(c.QueryInt("user", 0)),
	}
	opts.Limit, opts.Offset = pageParams(c)

	posts, err := h.ps.ListPosts(c.Context(), opts)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

// ListMine includes the caller's drafts.
func (h *PostHandler) ListMine(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{
		ViewerID: GetUserID(c),
		AuthorID: GetUserID(c),
		Status:   repository.StatusAny,
	}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

func (h *PostHandler) ListLiked(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{ViewerID: GetUserID(c), LikedBy: GetUserID(c)}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

func (h *PostHandler) ListWatchlist(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{ViewerID: GetUserID(c), WatchlistOf: GetUserID(c)}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

func (h *PostHandler) ListHistory(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{ViewerID: GetUserID(c), HistoryOf: GetUserID(c)}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

func (h *PostHandler) ListFollowing(c *fiber.Ctx) error {
	opts := &repository.PostListOptions{
		ViewerID:   GetUserID(c),
		FollowedBy: GetUserID(c),
		Sort:       c.Query("sort"),
	}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

// ListByUser serves a user's published posts for the profile page.
func (h *PostHandler) ListByUser(c *fiber.Ctx) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	opts := &repository.PostListOptions{
		ViewerID: GetUserID(c),
		AuthorID: userID,
		Sort:     c.Query("sort"),
	}
	opts.Limit, opts.Offset = pageParams(c)
	return h.respondList(c, opts)
}

func (h *PostHandler) respondList(c *fiber.Ctx, opts *repository.PostListOptions) error {
	posts, err := h.ps.ListPosts(c.Context(), opts)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	post, err := h.ps.GetPost(c.Context(), postID, GetUserID(c), c.Query("token"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

// CreatePost handles a browser upload from a signed-in user. The post starts
// as a draft; publishing is a separate step.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no file selected",
		})
	}
	// The thumbnail part is optional.
	thumb, _ := c.FormFile("thumbnail")

	post, err := h.ps.CreateFromUpload(c.Context(), GetUserID(c),
		fh, thumb, c.FormValue("title"), c.FormValue("description"), c.FormValue("format"))
	if err != nil {
		return ServiceError(c, err)
	}
	return h.respondCreated(c, post)
}

// IngestPost handles uploads relayed by the Discord bot on behalf of a
// channel member, authenticated by the service key middleware.
func (h *PostHandler) IngestPost(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no file selected",
		})
	}

	userID, err := h.as.EnsureDiscordUser(c.Context(),
		c.FormValue("discord_id"), c.FormValue("discord_name"), c.FormValue("avatar_url"))
	if err != nil {
		return ServiceError(c, err)
	}

	post, err := h.ps.CreateFromUpload(c.Context(), userID,
		fh, nil, c.FormValue("title"), c.FormValue("description"), c.FormValue("format"))
	if err != nil {
		return ServiceError(c, err)
	}
	return h.respondCreated(c, post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req transfer.PostUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unable to parse body",
		})
	}

	post, err := h.ps.UpdatePost(c.Context(), postID, GetUserID(c), c.Query("token"), &req)
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	post, err := h.ps.Publish(c.Context(), postID, GetUserID(c), c.Query("token"))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, ok := paramID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}

	err := h.ps.Remove(c.Context(), postID, GetUserID(c), c.Query("token"), IsAdmin(c))
	if err != nil {
		return ServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) respondCreated(c *fiber.Ctx, post *models.Post) error {
	if h.AsynqClient != nil {
		ttl := time.Duration(h.cfg.DraftTTLHours) * time.Hour
		if err := queue.EnqueueDraftExpiry(h.AsynqClient, queue.DraftExpirePayload{PostID: post.ID}, ttl); err != nil {
			slog.Info(err.Error())
		}
	}

	editURL := fmt.Sprintf("%s/edit/%d?token=%s",
		strings.TrimRight(h.cfg.FrontendURL, "/"), post.ID, post.EditToken)

	return c.Status(fiber.StatusCreated).JSON(transfer.PostCreatedResponse{
		ID:        post.ID,
		Status:    post.Status,
		FileURL:   post.FileURL,
		EditToken: post.EditToken,
		EditURL:   editURL,
	})
}
