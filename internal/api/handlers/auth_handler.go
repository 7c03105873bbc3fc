package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/service"
	"github.com/beardedvibes/beardedvibes/pkg/utils"
)

const stateCookieName = "bv_oauth_state"

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) DiscordLogin(c *fiber.Ctx) error {
	return h.redirectToProvider(c, h.s.DiscordAuthURL)
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	return h.redirectToProvider(c, h.s.GoogleAuthURL)
}

func (h *AuthHandler) redirectToProvider(c *fiber.Ctx, authURL func(string) string) error {
	state, err := utils.GenerateRandomKey(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     stateCookieName,
		Value:    state,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Minute),
	})

	return c.Redirect(authURL(state))
}

func (h *AuthHandler) DiscordCallback(c *fiber.Ctx) error {
	if !h.stateValid(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid oauth state",
		})
	}

	userID, err := h.s.DiscordCallback(c.Context(), c.Query("code"))
	if err != nil {
		return ServiceError(c, err)
	}
	return h.issueSession(c, userID)
}

func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	if !h.stateValid(c) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid oauth state",
		})
	}

	userID, err := h.s.GoogleCallback(c.Context(), c.Query("code"))
	if err != nil {
		return ServiceError(c, err)
	}
	return h.issueSession(c, userID)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(GetUser(c))
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

// stateValid checks the callback's state parameter against the nonce cookie
// set before the redirect, then burns the cookie.
func (h *AuthHandler) stateValid(c *fiber.Ctx) bool {
	state := c.Query("state")
	cookie := c.Cookies(stateCookieName)

	c.Cookie(&fiber.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	return state != "" && state == cookie
}

func (h *AuthHandler) issueSession(c *fiber.Ctx, userID int64) error {
	user, err := h.s.SessionUser(c.Context(), userID)
	if err != nil {
		return ServiceError(c, err)
	}

	ttl := time.Duration(h.cfg.SessionTTLHours) * time.Hour
	token, err := utils.GenerateToken(h.cfg.SecretKey, user, ttl)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
	})

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}
