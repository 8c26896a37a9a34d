/**
 * @description
 * Browser session middleware.
 * Every request is bound to a session identified by the pd_session cookie
 * (a random UUID). The session's token, cached user and favorites live in the
 * configured session store, never in the cookie.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - github.com/google/uuid
 * - frontend/internal/session
 */

package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/session"
)

const (
	SessionCookie = "pd_session"

	// KeyBootstrapped marks a session whose token has been validated
	KeyBootstrapped = "bootstrapped"

	localsSession = "session"
)

// SessionConfig configures the session cookie
type SessionConfig struct {
	Manager *session.Manager
	TTL     time.Duration
	Secure  bool
}

// Bootstrapper validates a persisted token for a session
type Bootstrapper func(c *fiber.Ctx, sess *session.Session) (*models.User, error)

// Session attaches the browser's session to the request, issuing a new
// cookie when none (or a malformed one) is presented.
func Session(cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(SessionCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.New().String()
		}

		cookie := &fiber.Cookie{
			Name:     SessionCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			Secure:   cfg.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		}
		if cfg.TTL > 0 {
			cookie.Expires = time.Now().Add(cfg.TTL)
		}
		c.Cookie(cookie)

		c.Locals(localsSession, cfg.Manager.Session(sid))
		return c.Next()
	}
}

// Bootstrap validates a session's persisted token once, before any handler
// can make a protected request with it.
func Bootstrap(run Bootstrapper) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := GetSession(c)
		if err != nil {
			return c.Next()
		}
		ctx := c.UserContext()

		done, err := sess.Value(ctx, KeyBootstrapped)
		if err != nil {
			logger.Warn("Session %s: failed to read bootstrap flag: %v", sess.ID, err)
			return c.Next()
		}
		if done != "" || !sess.Authenticated(ctx) {
			return c.Next()
		}

		if _, err := run(c, sess); err != nil {
			logger.Warn("Session %s: bootstrap failed: %v", sess.ID, err)
			return c.Next()
		}
		if err := sess.SetValue(ctx, KeyBootstrapped, "1"); err != nil {
			logger.Warn("Session %s: failed to store bootstrap flag: %v", sess.ID, err)
		}
		return c.Next()
	}
}

// GetSession returns the request's session from context
func GetSession(c *fiber.Ctx) (*session.Session, error) {
	sess, ok := c.Locals(localsSession).(*session.Session)
	if !ok || sess == nil {
		return nil, errors.New("session not found in context")
	}
	return sess, nil
}
