package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/services"
)

// AdminHandler serves the admin console. Every route sits behind middleware.AdminOnly.
type AdminHandler struct {
	Admin *services.AdminService
}

func NewAdminHandler(admin *services.AdminService) *AdminHandler {
	return &AdminHandler{Admin: admin}
}

// Dashboard renders analytics, users and debates
// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AdminHandler.Dashboard", err)
	}
	dash, err := h.Admin.Dashboard(c.UserContext(), sess)
	if err != nil {
		return respondError(c, "AdminHandler.Dashboard", err)
	}
	return c.JSON(dash)
}

// GetUsers lists all users
// GET /api/admin/users
func (h *AdminHandler) GetUsers(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AdminHandler.GetUsers", err)
	}
	users, err := h.Admin.Users(c.UserContext(), sess)
	if err != nil {
		return respondError(c, "AdminHandler.GetUsers", err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// DeleteUser deactivates a user
// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AdminHandler.DeleteUser", err)
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid user id"})
	}
	if err := h.Admin.DeleteUser(c.UserContext(), sess, id); err != nil {
		return respondError(c, "AdminHandler.DeleteUser", err)
	}
	return c.JSON(fiber.Map{"deleted": id})
}

// GetDebates lists all debates
// GET /api/admin/debates
func (h *AdminHandler) GetDebates(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AdminHandler.GetDebates", err)
	}
	debates, err := h.Admin.Debates(c.UserContext(), sess)
	if err != nil {
		return respondError(c, "AdminHandler.GetDebates", err)
	}
	return c.JSON(fiber.Map{"debates": debates})
}

// GetAnalytics returns platform analytics
// GET /api/admin/analytics
func (h *AdminHandler) GetAnalytics(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "AdminHandler.GetAnalytics", err)
	}
	analytics, err := h.Admin.Analytics(c.UserContext(), sess)
	if err != nil {
		return respondError(c, "AdminHandler.GetAnalytics", err)
	}
	return c.JSON(analytics)
}
