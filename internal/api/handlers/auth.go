/**
 * @description
 * Sign-in pages and endpoints.
 * Signup and login share one two-step flow; the mode comes from the path.
 * Every response carries the flow so the page can render the current step,
 * the code expiry and the last server message.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - frontend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/services"
	"github.com/polydebate/frontend/internal/session"
)

type AuthHandler struct {
	Auth      *services.AuthService
	Favorites *services.FavoritesService
}

func NewAuthHandler(auth *services.AuthService, favorites *services.FavoritesService) *AuthHandler {
	return &AuthHandler{Auth: auth, Favorites: favorites}
}

type requestCodeBody struct {
	Email string `json:"email" form:"email"`
	Name  string `json:"name" form:"name"`
}

type verifyBody struct {
	Code string `json:"code" form:"code"`
}

type adminLoginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *AuthHandler) modeAndSession(c *fiber.Ctx, mode string) (services.AuthMode, *session.Session, error) {
	m, err := services.ParseMode(mode)
	if err != nil {
		return "", nil, err
	}
	sess, err := middleware.GetSession(c)
	if err != nil {
		return "", nil, err
	}
	return m, sess, nil
}

// flowError answers a failed step, keeping the flow in the body
func flowError(c *fiber.Ctx, err error, flow *services.AuthFlow) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error("AuthHandler: %v", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": body, "flow": flow})
}

// LoginPage renders the login form
// GET /login
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return h.page(c, string(services.AuthLogin))
}

// SignupPage renders the signup form
// GET /signup
func (h *AuthHandler) SignupPage(c *fiber.Ctx) error {
	return h.page(c, string(services.AuthSignup))
}

func (h *AuthHandler) page(c *fiber.Ctx, mode string) error {
	m, sess, err := h.modeAndSession(c, mode)
	if err != nil {
		return respondError(c, "AuthHandler.page", err)
	}
	ctx := c.UserContext()
	if sess.Authenticated(ctx) {
		return c.Redirect(middleware.HomePath, fiber.StatusFound)
	}

	flow, err := h.Auth.Flow(ctx, sess, m)
	if err != nil {
		return respondError(c, "AuthHandler.page", err)
	}
	return c.JSON(fiber.Map{"flow": flow})
}

// RequestCode runs step one
// POST /api/auth/:mode/request-code
func (h *AuthHandler) RequestCode(c *fiber.Ctx) error {
	m, sess, err := h.modeAndSession(c, c.Params("mode"))
	if err != nil {
		return respondError(c, "AuthHandler.RequestCode", err)
	}

	var body requestCodeBody
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid request body"})
	}

	flow, err := h.Auth.RequestCode(c.UserContext(), sess, m, body.Email, body.Name)
	if err != nil {
		return flowError(c, err, flow)
	}
	return c.JSON(fiber.Map{"flow": flow})
}

// Resend repeats step one for the flow's email
// POST /api/auth/:mode/resend
func (h *AuthHandler) Resend(c *fiber.Ctx) error {
	m, sess, err := h.modeAndSession(c, c.Params("mode"))
	if err != nil {
		return respondError(c, "AuthHandler.Resend", err)
	}
	flow, err := h.Auth.Resend(c.UserContext(), sess, m)
	if err != nil {
		return flowError(c, err, flow)
	}
	return c.JSON(fiber.Map{"flow": flow})
}

// Verify runs step two and signs the session in
// POST /api/auth/:mode/verify
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	m, sess, err := h.modeAndSession(c, c.Params("mode"))
	if err != nil {
		return respondError(c, "AuthHandler.Verify", err)
	}

	var body verifyBody
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid request body"})
	}

	ctx := c.UserContext()
	user, flow, err := h.Auth.Verify(ctx, sess, m, body.Code)
	if err != nil {
		return flowError(c, err, flow)
	}

	if _, err := h.Favorites.Load(ctx, sess); err != nil {
		logger.Warn("AuthHandler: failed to load favorites after sign-in: %v", err)
	}
	return c.JSON(fiber.Map{"user": user, "redirect": middleware.HomePath})
}

// Restart returns the flow to email entry
// POST /api/auth/:mode/restart
func (h *AuthHandler) Restart(c *fiber.Ctx) error {
	m, sess, err := h.modeAndSession(c, c.Params("mode"))
	if err != nil {
		return respondError(c, "AuthHandler.Restart", err)
	}
	ctx := c.UserContext()
	if err := h.Auth.Restart(ctx, sess, m); err != nil {
		return respondError(c, "AuthHandler.Restart", err)
	}
	flow, err := h.Auth.Flow(ctx, sess, m)
	if err != nil {
		return respondError(c, "AuthHandler.Restart", err)
	}
	return c.JSON(fiber.Map{"flow": flow})
}

// Logout clears the session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AuthHandler.Logout", err)
	}
	if err := h.Auth.Logout(c.UserContext(), sess); err != nil {
		return respondError(c, "AuthHandler.Logout", err)
	}
	return c.JSON(fiber.Map{"redirect": middleware.HomePath})
}

// Me returns the cached user of the session
// GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AuthHandler.Me", err)
	}
	ctx := c.UserContext()
	user, err := sess.User(ctx)
	if err != nil {
		return respondError(c, "AuthHandler.Me", err)
	}
	return c.JSON(fiber.Map{
		"authenticated": sess.Authenticated(ctx),
		"user":          user,
	})
}

// AdminLoginPage renders the admin sign-in form
// GET /admin/login
func (h *AuthHandler) AdminLoginPage(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AuthHandler.AdminLoginPage", err)
	}
	ctx := c.UserContext()
	if user, err := sess.User(ctx); err == nil && user != nil && user.IsAdmin && sess.Authenticated(ctx) {
		return c.Redirect("/admin", fiber.StatusFound)
	}
	return c.JSON(fiber.Map{"form": "admin_login"})
}

// AdminLogin signs in with admin credentials
// POST /api/admin/login
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AuthHandler.AdminLogin", err)
	}

	var body adminLoginBody
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid request body"})
	}

	user, err := h.Auth.AdminLogin(c.UserContext(), sess, body.Email, body.Password)
	if err != nil {
		return respondError(c, "AuthHandler.AdminLogin", err)
	}
	return c.JSON(fiber.Map{"user": user, "redirect": "/admin"})
}
