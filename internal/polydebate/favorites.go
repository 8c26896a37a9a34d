package polydebate

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/polydebate/frontend/internal/models"
)

// ListFavorites lists the signed-in user's favorites
// GET /api/favorites
func (c *Client) ListFavorites(ctx context.Context) (*models.FavoriteList, error) {
	var res envelope[models.FavoriteList]
	if err := c.get(ctx, "/api/favorites", nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// AddFavorite bookmarks a market; adding an existing favorite is not an error
// POST /api/favorites
func (c *Client) AddFavorite(ctx context.Context, marketID string) (*models.Favorite, error) {
	if strings.TrimSpace(marketID) == "" {
		return nil, &ValidationError{Field: "market_id", Message: "market_id is required"}
	}
	var res envelope[models.Favorite]
	body := map[string]string{"market_id": marketID}
	if err := c.do(ctx, http.MethodPost, "/api/favorites", body, &res); err != nil {
		if ErrorCode(err) == "already_exists" {
			return &models.Favorite{MarketID: marketID}, nil
		}
		return nil, err
	}
	return &res.Data, nil
}

// RemoveFavorite deletes a bookmark; removing a missing favorite is not an error
// DELETE /api/favorites/<market_id>
func (c *Client) RemoveFavorite(ctx context.Context, marketID string) error {
	err := c.do(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(marketID), nil, nil)
	if err != nil && IsNotFound(err) {
		return nil
	}
	return err
}

// CheckFavorite asks whether a market is bookmarked
// GET /api/favorites/check/<market_id>
func (c *Client) CheckFavorite(ctx context.Context, marketID string) (*models.FavoriteCheck, error) {
	var res envelope[models.FavoriteCheck]
	if err := c.get(ctx, "/api/favorites/check/"+url.PathEscape(marketID), nil, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// FavoriteMarkets pages through favorites
// POST /api/favorites/markets
func (c *Client) FavoriteMarkets(ctx context.Context, limit, offset int) (*models.FavoriteList, error) {
	var res envelope[models.FavoriteList]
	body := map[string]int{"limit": limit, "offset": offset}
	if err := c.do(ctx, http.MethodPost, "/api/favorites/markets", body, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}
