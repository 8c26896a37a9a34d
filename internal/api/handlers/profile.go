/**
 * @description
 * Profile API Handlers.
 * Handles the signed-in user's profile, statistics and debate history.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - frontend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/services"
)

// ProfileHandler handles profile-related requests
type ProfileHandler struct {
	profileService *services.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type updateProfileBody struct {
	Name string `json:"name" form:"name"`
}

// GetProfile returns the user and their statistics
// GET /profile
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "ProfileHandler.GetProfile", err)
	}

	profile, err := h.profileService.Profile(c.UserContext(), sess)
	if err != nil {
		return respondError(c, "ProfileHandler.GetProfile", err)
	}
	return c.JSON(profile)
}

// UpdateProfile renames the user
// PUT /api/profile
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "ProfileHandler.UpdateProfile", err)
	}

	var body updateProfileBody
	if err := c.BodyParser(&body); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid request body"})
	}

	user, err := h.profileService.UpdateName(c.UserContext(), sess, body.Name)
	if err != nil {
		return respondError(c, "ProfileHandler.UpdateProfile", err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// GetDebates returns a page of the user's debates
// GET /api/profile/debates?sort=recent|rounds&offset=
func (h *ProfileHandler) GetDebates(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "ProfileHandler.GetDebates", err)
	}

	sort := c.Query("sort", "recent")
	if sort != "recent" && sort != "rounds" {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "sort must be recent or rounds"})
	}

	list, err := h.profileService.Debates(c.UserContext(), sess, sort, c.QueryInt("offset", 0))
	if err != nil {
		return respondError(c, "ProfileHandler.GetDebates", err)
	}
	return c.JSON(list)
}

// GetTopDebates returns the user's recent or favorited debates
// GET /api/profile/debates/top?type=recent|favorites&limit=
func (h *ProfileHandler) GetTopDebates(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "ProfileHandler.GetTopDebates", err)
	}

	top, err := h.profileService.TopDebates(c.UserContext(), sess, c.Query("type", "recent"), c.QueryInt("limit", 5))
	if err != nil {
		return respondError(c, "ProfileHandler.GetTopDebates", err)
	}
	return c.JSON(top)
}
