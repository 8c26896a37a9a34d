/**
 * @description
 * Favorites Service for market bookmarks.
 * The session keeps the favorited market ids as a set so membership checks
 * never need a request; Load resynchronises that set from the backend.
 *
 * @dependencies
 * - frontend/internal/polydebate
 * - frontend/internal/session
 * - golang.org/x/sync/errgroup
 */

package services

import (
	"context"
	"sync"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
	"golang.org/x/sync/errgroup"
)

const favoriteMarketFetchLimit = 4

// FavoritesService handles market bookmark operations
type FavoritesService struct {
	api *polydebate.Client
}

// NewFavoritesService creates a new FavoritesService
func NewFavoritesService(api *polydebate.Client) *FavoritesService {
	return &FavoritesService{api: api}
}

// Load syncs the session's favorite set from the backend. Anonymous
// sessions get an empty set without a request.
func (s *FavoritesService) Load(ctx context.Context, sess *session.Session) (map[string]struct{}, error) {
	if !sess.Authenticated(ctx) {
		return map[string]struct{}{}, nil
	}

	list, err := s.api.WithTokens(sess).ListFavorites(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Favorites))
	set := make(map[string]struct{}, len(list.Favorites))
	for _, f := range list.Favorites {
		ids = append(ids, f.MarketID)
		set[f.MarketID] = struct{}{}
	}
	if err := sess.ReplaceFavorites(ctx, ids); err != nil {
		logger.Warn("FavoritesService: failed to cache favorites: %v", err)
	}
	return set, nil
}

// Set returns the cached favorite set
func (s *FavoritesService) Set(ctx context.Context, sess *session.Session) map[string]struct{} {
	set, err := sess.FavoriteIDs(ctx)
	if err != nil {
		logger.Warn("FavoritesService: failed to read favorites: %v", err)
		return map[string]struct{}{}
	}
	return set
}

// IsFavorite checks the cached set
func (s *FavoritesService) IsFavorite(ctx context.Context, sess *session.Session, marketID string) bool {
	_, ok := s.Set(ctx, sess)[marketID]
	return ok
}

// Check asks the backend whether a market is bookmarked and brings the
// cached set in line with the answer. Anonymous sessions are never favorites.
// On failure the cached answer is returned with the error.
func (s *FavoritesService) Check(ctx context.Context, sess *session.Session, marketID string) (bool, error) {
	if !sess.Authenticated(ctx) {
		return false, nil
	}

	cached := s.IsFavorite(ctx, sess, marketID)
	res, err := s.api.WithTokens(sess).CheckFavorite(ctx, marketID)
	if err != nil {
		return cached, err
	}
	if res.IsFavorited != cached {
		if err := sess.MarkFavorite(ctx, marketID, res.IsFavorited); err != nil {
			logger.Warn("FavoritesService: failed to cache favorite %s: %v", marketID, err)
		}
	}
	return res.IsFavorited, nil
}

// Toggle flips a market's bookmark and returns the new state
func (s *FavoritesService) Toggle(ctx context.Context, sess *session.Session, marketID string) (bool, error) {
	if !sess.Authenticated(ctx) {
		return false, polydebate.ErrNoToken
	}

	api := s.api.WithTokens(sess)
	if s.IsFavorite(ctx, sess, marketID) {
		if err := api.RemoveFavorite(ctx, marketID); err != nil {
			return true, err
		}
		return false, sess.MarkFavorite(ctx, marketID, false)
	}

	if _, err := api.AddFavorite(ctx, marketID); err != nil {
		return false, err
	}
	return true, sess.MarkFavorite(ctx, marketID, true)
}

// Markets returns a page of the user's favorited markets with market details
func (s *FavoritesService) Markets(ctx context.Context, sess *session.Session, limit, offset int) ([]models.Market, *models.FavoriteList, error) {
	if !sess.Authenticated(ctx) {
		return nil, nil, polydebate.ErrNoToken
	}

	api := s.api.WithTokens(sess)
	list, err := api.FavoriteMarkets(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	markets := make([]*models.Market, len(list.Favorites))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(favoriteMarketFetchLimit)
	for i, fav := range list.Favorites {
		i, id := i, fav.MarketID
		g.Go(func() error {
			m, err := api.GetMarket(gctx, id)
			if err != nil {
				if polydebate.IsNotFound(err) {
					// Skip markets that no longer exist
					return nil
				}
				return err
			}
			mu.Lock()
			markets[i] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]models.Market, 0, len(markets))
	for _, m := range markets {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, list, nil
}
