package polydebate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/polydebate/frontend/internal/models"
)

// Category-path listing variants served by the backend
const (
	CategoryBreaking = "breaking"
	CategoryTrending = "trending"
	CategoryNew      = "new"
)

// IsPathCategory reports whether slug is listed via the category-path variant
func IsPathCategory(slug string) bool {
	switch slug {
	case CategoryBreaking, CategoryTrending, CategoryNew:
		return true
	}
	return false
}

// MarketQuery holds query parameters for the market list endpoint
type MarketQuery struct {
	Limit  int
	Offset int
	TagID  string
	Search string
	Closed bool
}

func (q MarketQuery) values() url.Values {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.TagID != "" {
		v.Set("tag_id", q.TagID)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Closed {
		v.Set("closed", "true")
	}
	return v
}

// ListMarkets fetches one page of markets
// GET /api/markets
func (c *Client) ListMarkets(ctx context.Context, q MarketQuery) (*models.MarketPage, error) {
	var page models.MarketPage
	if err := c.get(ctx, "/api/markets", q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListCategoryMarkets fetches one page of a breaking/trending/new listing
// GET /api/markets/category/<slug>
func (c *Client) ListCategoryMarkets(ctx context.Context, slug string, q MarketQuery) (*models.MarketPage, error) {
	if !IsPathCategory(slug) {
		return nil, &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category listing %q", slug)}
	}
	var page models.MarketPage
	if err := c.get(ctx, "/api/markets/category/"+url.PathEscape(slug), q.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetMarket fetches a single market
// GET /api/markets/<id>
func (c *Client) GetMarket(ctx context.Context, id string) (*models.Market, error) {
	var market models.Market
	if err := c.get(ctx, "/api/markets/"+url.PathEscape(id), nil, &market); err != nil {
		return nil, err
	}
	return &market, nil
}

// ListCategories fetches the browsable categories
// GET /api/categories
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var list models.CategoryList
	if err := c.get(ctx, "/api/categories", nil, &list); err != nil {
		return nil, err
	}
	return list.Categories, nil
}

// ListModels fetches the AI model catalogue
// GET /api/models
func (c *Client) ListModels(ctx context.Context) (*models.ModelCatalogue, error) {
	var catalogue models.ModelCatalogue
	if err := c.get(ctx, "/api/models", nil, &catalogue); err != nil {
		return nil, err
	}
	return &catalogue, nil
}
