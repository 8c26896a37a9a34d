/**
 * @description
 * Route gates for signed-in and admin areas.
 *
 * @notes
 * - Advisory only. The backend enforces authorization on every call; these
 *   gates keep obviously unauthorized sessions away from protected pages.
 * - Page requests are redirected; /api requests get a JSON 401 carrying the
 *   redirect target.
 */

package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/session"
)

const (
	LoginPath      = "/login"
	AdminLoginPath = "/admin/login"
	HomePath       = "/"
)

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/api/")
}

// deny redirects a page request, or answers an API request with 401
func deny(c *fiber.Ctx, target, message string) error {
	if isAPIRequest(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": fiber.Map{
				"code":     "unauthenticated",
				"message":  message,
				"redirect": target,
			},
		})
	}
	return c.Redirect(target, fiber.StatusFound)
}

// Protected requires a session token
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := GetSession(c)
		if err != nil || !sess.Authenticated(c.UserContext()) {
			return deny(c, LoginPath, "Please sign in to continue")
		}
		return c.Next()
	}
}

// AdminOnly gates the admin area on the cached token and user:
// missing token or user, or an unreadable user, goes to the admin login;
// a non-admin user goes home.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := GetSession(c)
		if err != nil {
			return deny(c, AdminLoginPath, "Admin sign-in required")
		}
		ctx := c.UserContext()
		if !sess.Authenticated(ctx) {
			return deny(c, AdminLoginPath, "Admin sign-in required")
		}

		user, err := sess.User(ctx)
		if errors.Is(err, session.ErrMalformedUser) || (err == nil && user == nil) {
			return deny(c, AdminLoginPath, "Admin sign-in required")
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fiber.Map{"code": "session_error", "message": "Failed to read session"},
			})
		}

		if !user.IsAdmin {
			if isAPIRequest(c) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": fiber.Map{"code": "forbidden", "message": "Admin access required", "redirect": HomePath},
				})
			}
			return c.Redirect(HomePath, fiber.StatusFound)
		}
		return c.Next()
	}
}
