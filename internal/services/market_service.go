/**
 * @description
 * Service layer for market browsing.
 * Fetches market pages, categories and the model catalogue from the
 * PolyDebate backend, caching the slow-moving documents in Redis, and owns
 * the per-session market feeds.
 *
 * @dependencies
 * - frontend/internal/polydebate
 * - frontend/internal/feed
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyModels     = "polydebate:models"
	CacheKeyCategories = "polydebate:categories"
	cacheKeyPagePrefix = "polydebate:markets:"

	DefaultModelCacheTTL = 10 * time.Minute
)

type MarketService struct {
	API   *polydebate.Client
	Redis *redis.Client
	Feeds *feed.Registry

	PageTTL      time.Duration
	ModelTTL     time.Duration
	BreakingTopN int
}

// NewMarketService wires the market service. rdb may be nil, which disables caching.
func NewMarketService(api *polydebate.Client, rdb *redis.Client, cfg *config.Config) *MarketService {
	s := &MarketService{
		API:          api,
		Redis:        rdb,
		PageTTL:      cfg.Feed.PageCacheTTL,
		ModelTTL:     cfg.Feed.ModelCacheTTL,
		BreakingTopN: cfg.Feed.BreakingTopN,
	}
	if s.ModelTTL <= 0 {
		s.ModelTTL = DefaultModelCacheTTL
	}
	if s.BreakingTopN <= 0 {
		s.BreakingTopN = feed.DefaultBreakingTopN
	}
	pageSize := cfg.Feed.PageSize
	s.Feeds = feed.NewRegistry(func() *feed.Feed {
		return feed.New(s.FetchPage, pageSize)
	}, cfg.Session.TTL)
	return s
}

// Feed returns the market feed of a browser session
func (s *MarketService) Feed(sid string) *feed.Feed {
	return s.Feeds.Get(sid)
}

// FetchPage loads one page for a feed filter. Category-path listings
// (breaking, trending, new) use the path variant and ignore the search term.
func (s *MarketService) FetchPage(ctx context.Context, filter feed.Filter, offset, limit int) (*models.MarketPage, error) {
	q := polydebate.MarketQuery{Limit: limit, Offset: offset}
	pathCategory := polydebate.IsPathCategory(filter.Category)
	if !pathCategory {
		q.TagID = filter.TagID
		q.Search = filter.Search
	}

	key := pageCacheKey(filter, pathCategory, q)
	var page models.MarketPage
	if s.getCached(ctx, key, &page) {
		return &page, nil
	}

	var (
		fetched *models.MarketPage
		err     error
	)
	if pathCategory {
		fetched, err = s.API.ListCategoryMarkets(ctx, filter.Category, q)
	} else {
		fetched, err = s.API.ListMarkets(ctx, q)
	}
	if err != nil {
		return nil, err
	}
	if s.PageTTL > 0 {
		s.setCached(ctx, key, fetched, s.PageTTL)
	}
	return fetched, nil
}

func pageCacheKey(filter feed.Filter, pathCategory bool, q polydebate.MarketQuery) string {
	v := url.Values{}
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("limit", strconv.Itoa(q.Limit))
	if pathCategory {
		v.Set("category", filter.Category)
	}
	if q.TagID != "" {
		v.Set("tag", q.TagID)
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	return cacheKeyPagePrefix + v.Encode()
}

// Breaking returns the breaking listing ranked by absolute 24h change
func (s *MarketService) Breaking(ctx context.Context, limit int) ([]models.Market, error) {
	if limit <= 0 || limit > s.BreakingTopN {
		limit = s.BreakingTopN
	}
	page, err := s.FetchPage(ctx, feed.Filter{Category: polydebate.CategoryBreaking}, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch breaking markets: %w", err)
	}
	return feed.RankBreaking(page.Markets, limit), nil
}

// Market returns a single market, uncached
func (s *MarketService) Market(ctx context.Context, id string) (*models.Market, error) {
	return s.API.GetMarket(ctx, id)
}

// Categories returns the browsable categories, preferring Cache -> API
func (s *MarketService) Categories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if s.getCached(ctx, CacheKeyCategories, &cached) {
		return cached, nil
	}
	cats, err := s.API.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, CacheKeyCategories, cats, s.ModelTTL)
	return cats, nil
}

// Models returns the model catalogue, preferring Cache -> API
func (s *MarketService) Models(ctx context.Context) (*models.ModelCatalogue, error) {
	var cached models.ModelCatalogue
	if s.getCached(ctx, CacheKeyModels, &cached) {
		return &cached, nil
	}
	catalogue, err := s.API.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, CacheKeyModels, catalogue, s.ModelTTL)
	return catalogue, nil
}

// WarmCache refreshes the model catalogue and categories, and the first
// page of each category-path listing
func (s *MarketService) WarmCache(ctx context.Context) error {
	catalogue, err := s.API.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch model catalogue: %w", err)
	}
	s.setCached(ctx, CacheKeyModels, catalogue, s.ModelTTL)

	cats, err := s.API.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}
	s.setCached(ctx, CacheKeyCategories, cats, s.ModelTTL)

	if s.PageTTL <= 0 {
		return nil
	}
	for _, slug := range []string{polydebate.CategoryBreaking, polydebate.CategoryTrending, polydebate.CategoryNew} {
		q := polydebate.MarketQuery{Limit: s.BreakingTopN}
		page, err := s.API.ListCategoryMarkets(ctx, slug, q)
		if err != nil {
			logger.Warn("MarketService: warm %s listing failed: %v", slug, err)
			continue
		}
		s.setCached(ctx, pageCacheKey(feed.Filter{Category: slug}, true, q), page, s.PageTTL)
	}
	return nil
}

func (s *MarketService) getCached(ctx context.Context, key string, out interface{}) bool {
	if s.Redis == nil {
		return false
	}
	val, err := s.Redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	// If unmarshal fails, fall through to the API
	return json.Unmarshal([]byte(val), out) == nil
}

func (s *MarketService) setCached(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if s.Redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("MarketService: failed to marshal %s for cache: %v", key, err)
		return
	}
	if err := s.Redis.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn("MarketService: failed to set %s cache: %v", key, err)
	}
}
