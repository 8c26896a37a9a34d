/**
 * @description
 * Market pages and endpoints.
 * The home feed, breaking listing, market detail and the model/category
 * catalogues used by the debate launcher.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - frontend/internal/feed
 * - frontend/internal/services
 *
 * @notes
 * - Each browser session owns one feed. Changing category, tag or search
 *   resets it; /api/feed/more appends the next page.
 */

package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/palette"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
)

type MarketHandler struct {
	Markets   *services.MarketService
	Favorites *services.FavoritesService
	Debates   *services.DebateService
}

func NewMarketHandler(markets *services.MarketService, favorites *services.FavoritesService, debates *services.DebateService) *MarketHandler {
	return &MarketHandler{Markets: markets, Favorites: favorites, Debates: debates}
}

// FeedPage is the JSON model of the market feed
type FeedPage struct {
	Filter     feed.Filter       `json:"filter"`
	State      string            `json:"state"`
	Markets    []feed.MarketView `json:"markets"`
	HasMore    bool              `json:"has_more"`
	Generation uint64            `json:"generation"`
	Categories []models.Category `json:"categories,omitempty"`
	Error      *ErrorBody        `json:"error,omitempty"`
}

func (h *MarketHandler) feedPage(c *fiber.Ctx, f *feed.Feed) (int, FeedPage) {
	sess, _ := middleware.GetSession(c)
	snap := f.Snapshot()

	items := snap.Items
	if snap.Filter.Category == polydebate.CategoryBreaking {
		items = feed.RankBreakingItems(items, h.Markets.BreakingTopN)
	}

	favorites := map[string]struct{}{}
	if sess != nil {
		favorites = h.Favorites.Set(c.UserContext(), sess)
	}

	page := FeedPage{
		Filter:     snap.Filter,
		State:      snap.State.String(),
		Markets:    feed.Views(items, favorites),
		HasMore:    snap.HasMore,
		Generation: snap.Generation,
	}
	status := fiber.StatusOK
	if err := snap.Err(); err != nil {
		var body ErrorBody
		status, body = classify(err)
		page.Error = &body
	}
	return status, page
}

func (h *MarketHandler) sessionFeed(c *fiber.Ctx) (*feed.Feed, error) {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return nil, err
	}
	return h.Markets.Feed(sess.ID), nil
}

// Home renders the market feed for the requested filter
// GET /?category=&tag=&q=
func (h *MarketHandler) Home(c *fiber.Ctx) error {
	f, err := h.sessionFeed(c)
	if err != nil {
		return respondError(c, "MarketHandler.Home", err)
	}

	f.SetFilter(feed.Filter{
		Category: c.Query("category"),
		TagID:    c.Query("tag"),
		Search:   c.Query("q"),
	})
	if err := f.EnsureLoaded(c.UserContext()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("MarketHandler: initial feed load failed: %v", err)
	}

	status, page := h.feedPage(c, f)
	if categories, err := h.Markets.Categories(c.UserContext()); err == nil {
		page.Categories = categories
	}
	return c.Status(status).JSON(page)
}

// LoadMore appends the next page of the current filter
// POST /api/feed/more
func (h *MarketHandler) LoadMore(c *fiber.Ctx) error {
	f, err := h.sessionFeed(c)
	if err != nil {
		return respondError(c, "MarketHandler.LoadMore", err)
	}
	if _, err := f.LoadMore(c.UserContext()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("MarketHandler: feed page load failed: %v", err)
	}
	status, page := h.feedPage(c, f)
	return c.Status(status).JSON(page)
}

// ResetFeed clears accumulated results (and a failed state) and reloads
// POST /api/feed/reset
func (h *MarketHandler) ResetFeed(c *fiber.Ctx) error {
	f, err := h.sessionFeed(c)
	if err != nil {
		return respondError(c, "MarketHandler.ResetFeed", err)
	}
	f.Reset()
	if err := f.EnsureLoaded(c.UserContext()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("MarketHandler: feed reload failed: %v", err)
	}
	status, page := h.feedPage(c, f)
	return c.Status(status).JSON(page)
}

// GetBreaking returns the breaking listing ranked by 24h movement
// GET /breaking?limit=
func (h *MarketHandler) GetBreaking(c *fiber.Ctx) error {
	markets, err := h.Markets.Breaking(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, "MarketHandler.GetBreaking", err)
	}

	views := make([]feed.MarketView, len(markets))
	for i, m := range markets {
		views[i] = feed.NewMarketView(m, false)
	}
	return c.JSON(fiber.Map{"markets": views})
}

// GetMarket returns one market with its recent debates
// GET /markets/:id
func (h *MarketHandler) GetMarket(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Market id is required"})
	}
	ctx := c.UserContext()

	market, err := h.Markets.Market(ctx, id)
	if err != nil {
		return respondError(c, "MarketHandler.GetMarket", err)
	}

	view := feed.NewMarketView(*market, false)
	if sess, err := middleware.GetSession(c); err == nil {
		fav, err := h.Favorites.Check(ctx, sess, market.ID)
		if err != nil {
			logger.Warn("MarketHandler: favorite check for %s failed: %v", market.ID, err)
		}
		view.Favorite = fav
	}

	resp := fiber.Map{"market": view, "description": market.Description}
	if debates, err := h.Debates.List(ctx, market.ID); err != nil {
		logger.Warn("MarketHandler: debates for market %s unavailable: %v", market.ID, err)
	} else {
		resp["debates"] = debates.Debates
	}
	return c.JSON(resp)
}

// ModelEntry is a catalogue entry with its badge style
type ModelEntry struct {
	models.AIModel
	Badge palette.Style `json:"badge"`
}

// GetModels returns the model catalogue for the debate launcher
// GET /api/models
func (h *MarketHandler) GetModels(c *fiber.Ctx) error {
	catalogue, err := h.Markets.Models(c.UserContext())
	if err != nil {
		return respondError(c, "MarketHandler.GetModels", err)
	}

	entries := make([]ModelEntry, len(catalogue.Models))
	for i, m := range catalogue.Models {
		badge := palette.ForModel(m.ID)
		if m.Provider != "" {
			badge = palette.For(m.Provider)
		}
		entries[i] = ModelEntry{AIModel: m, Badge: badge}
	}
	return c.JSON(fiber.Map{
		"models":      entries,
		"total_count": catalogue.TotalCount,
		"free_count":  catalogue.FreeCount,
		"paid_count":  catalogue.PaidCount,
	})
}

// GetCategories returns the category list
// GET /api/categories
func (h *MarketHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.Markets.Categories(c.UserContext())
	if err != nil {
		return respondError(c, "MarketHandler.GetCategories", err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}
