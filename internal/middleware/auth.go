package middleware

import (
	"strings"
	"time"

	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CookieName   = "authToken"
	LoginPath    = "/login"
	sessionLocal = "session"
)

// SessionGuard admits a request only after the upstream API has confirmed the session's
// token. It runs on every protected request. Any failure logs the user out.
func SessionGuard(svc session.Service, logger *zap.Logger, skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			dev := &session.Session{ID: "dev-session", Role: session.RoleSuperAdmin, Username: "dev", Name: "Developer"}
			attach(c, dev)
			return c.Next()
		}

		sess, err := svc.Resolve(c.UserContext(), consoleToken(c))
		if err != nil {
			logger.Debug("no usable session", zap.String("path", c.Path()), zap.Error(err))
			return deny(c)
		}

		if err := svc.Validate(c.UserContext(), sess); err != nil {
			logger.Info("session rejected upstream", zap.String("session_id", sess.ID), zap.String("username", sess.Username), zap.Error(err))
			destroy(c, svc, logger, sess)
			return deny(c)
		}

		attach(c, sess)
		err = c.Next()
		if err != nil && upstream.IsUnauthorized(err) {
			logger.Info("upstream revoked token mid-request", zap.String("session_id", sess.ID), zap.String("path", c.Path()))
			destroy(c, svc, logger, sess)
			return deny(c)
		}
		return err
	}
}

func destroy(c *fiber.Ctx, svc session.Service, logger *zap.Logger, sess *session.Session) {
	if err := svc.Destroy(c.UserContext(), sess.ID); err != nil {
		logger.Error("failed to destroy session", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

// CurrentSession returns the session attached by SessionGuard.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionLocal).(*session.Session)
	return sess
}

func attach(c *fiber.Ctx, sess *session.Session) {
	c.Locals(sessionLocal, sess)
	c.SetUserContext(session.WithSession(c.UserContext(), sess))
}

func consoleToken(c *fiber.Ctx) string {
	if token := c.Cookies(CookieName); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// SetSessionCookie stores the console token the way the browser shell expects it.
func SetSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// deny sends screens to the login page and tells API callers where to go.
func deny(c *fiber.Ctx) error {
	ClearSessionCookie(c)
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":    "Unauthorized",
			"redirect": LoginPath,
		})
	}
	return c.Redirect(LoginPath, fiber.StatusFound)
}

// Workspace returns the state workspace of the session attached to c.
func Workspace(c *fiber.Ctx, registry *store.Registry) *store.Workspace {
	return registry.Get(CurrentSession(c).ID)
}
