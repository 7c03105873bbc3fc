package middleware

import (
	"crypto/subtle"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/beardedvibes/beardedvibes/configs"
	"github.com/beardedvibes/beardedvibes/internal/models"
	"github.com/beardedvibes/beardedvibes/internal/repository"
	"github.com/beardedvibes/beardedvibes/pkg/utils"
)

// refreshAfter is how old a token may grow before a request slides the
// session forward with a fresh cookie.
const refreshAfter = 24 * time.Hour

var (
	errSessionInvalid = errors.New("invalid or expired token")
	errSessionBanned  = errors.New("account is banned")
)

type AuthMiddleware struct {
	cfg config.Config
	u   repository.UserRepository
}

func NewAuthMiddleware(cfg config.Config, u repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, u: u}
}

// OptionalAuth lets anonymous requests through and attaches the user when a
// valid cookie is present. The user row is re-read on every request so bans
// and flag changes apply immediately, whatever the cookie still claims: a
// banned account is rejected outright, a stale cookie is cleared and the
// request continues anonymously.
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			return c.Next()
		}

		user, err := m.resolveSession(c, tokenString)
		if err != nil {
			if errors.Is(err, errSessionBanned) {
				return m.sessionError(c, err)
			}
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("user", user)
		return c.Next()
	}
}

// RequireUser must run after OptionalAuth; it turns anonymous requests away.
func (m *AuthMiddleware) RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("user").(*models.User); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		return c.Next()
	}
}

// RequireAdmin must run after OptionalAuth.
func (m *AuthMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}

// RequireServiceKey authenticates trusted automation (the Discord bot) by a
// shared secret header instead of a session cookie.
func (m *AuthMiddleware) RequireServiceKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Service-Key")
		if m.cfg.ServiceKey == "" || key == "" ||
			subtle.ConstantTimeCompare([]byte(key), []byte(m.cfg.ServiceKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service key",
			})
		}
		return c.Next()
	}
}

func (m *AuthMiddleware) resolveSession(c *fiber.Ctx, tokenString string) (*models.User, error) {
	claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
	if err != nil {
		m.clearCookie(c)
		log.Printf("Token validation failed: %v", err)
		return nil, errSessionInvalid
	}

	user, exists, err := m.u.GetByID(c.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		m.clearCookie(c)
		return nil, errSessionInvalid
	}
	if user.IsBanned {
		m.clearCookie(c)
		return nil, errSessionBanned
	}

	if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > refreshAfter {
		ttl := time.Duration(m.cfg.SessionTTLHours) * time.Hour
		token, err := utils.GenerateToken(m.cfg.SecretKey, user, ttl)
		if err == nil {
			c.Cookie(&fiber.Cookie{
				Name:     m.cfg.CookieName,
				Value:    token,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Path:     "/",
				Expires:  time.Now().Add(ttl),
			})
		}
	}

	return user, nil
}

func (m *AuthMiddleware) sessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errSessionBanned):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, errSessionInvalid):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "something went wrong"})
	}
}

func (m *AuthMiddleware) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:   m.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
