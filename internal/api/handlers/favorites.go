package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/services"
)

const favoritesPageSize = 20

type FavoritesHandler struct {
	Favorites *services.FavoritesService
}

func NewFavoritesHandler(favorites *services.FavoritesService) *FavoritesHandler {
	return &FavoritesHandler{Favorites: favorites}
}

// GetFavorites renders the bookmarked markets page
// GET /favorites?offset=
func (h *FavoritesHandler) GetFavorites(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "FavoritesHandler.GetFavorites", err)
	}
	ctx := c.UserContext()

	if _, err := h.Favorites.Load(ctx, sess); err != nil {
		return respondError(c, "FavoritesHandler.GetFavorites", err)
	}

	offset := c.QueryInt("offset", 0)
	markets, list, err := h.Favorites.Markets(ctx, sess, favoritesPageSize, offset)
	if err != nil {
		return respondError(c, "FavoritesHandler.GetFavorites", err)
	}

	views := make([]feed.MarketView, len(markets))
	for i, m := range markets {
		views[i] = feed.NewMarketView(m, false)
		views[i].Favorite = true
	}
	return c.JSON(fiber.Map{
		"markets":  views,
		"total":    list.Total,
		"offset":   offset,
		"has_more": offset+len(list.Favorites) < list.Total,
	})
}

// GetFavoriteIDs returns the cached favorite set
// GET /api/favorites/ids
func (h *FavoritesHandler) GetFavoriteIDs(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "FavoritesHandler.GetFavoriteIDs", err)
	}
	set := h.Favorites.Set(c.UserContext(), sess)
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return c.JSON(fiber.Map{"market_ids": ids})
}

// ToggleFavorite flips a market's bookmark
// POST /api/favorites/:marketId/toggle
func (h *FavoritesHandler) ToggleFavorite(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "FavoritesHandler.ToggleFavorite", err)
	}
	marketID := c.Params("marketId")
	if marketID == "" {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Market id is required"})
	}

	on, err := h.Favorites.Toggle(c.UserContext(), sess, marketID)
	if err != nil {
		return respondError(c, "FavoritesHandler.ToggleFavorite", err)
	}
	return c.JSON(fiber.Map{"market_id": marketID, "is_favorited": on})
}
