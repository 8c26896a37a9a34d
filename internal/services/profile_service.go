/**
 * @description
 * Profile Service for the signed-in user's page.
 * Loads the profile (user + activity statistics) and the user's debates,
 * caching the profile in Redis per user for a short time.
 *
 * @dependencies
 * - frontend/internal/polydebate
 * - github.com/redis/go-redis/v9
 */

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
	"github.com/redis/go-redis/v9"
)

const (
	ProfileCacheTTL = 2 * time.Minute
	DebatesPageSize = 10
)

// ProfileService handles the profile page
type ProfileService struct {
	api   *polydebate.Client
	redis *redis.Client
}

// NewProfileService creates a new ProfileService. rdb may be nil.
func NewProfileService(api *polydebate.Client, rdb *redis.Client) *ProfileService {
	return &ProfileService{api: api, redis: rdb}
}

func profileCacheKey(userID int64) string {
	return fmt.Sprintf("profile:%d", userID)
}

// getFromCache attempts to get data from Redis cache
func getFromCache[T any](ctx context.Context, rdb *redis.Client, key string) (*T, error) {
	if rdb == nil {
		return nil, nil
	}

	data, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// setCache stores data in Redis cache
func setCache(ctx context.Context, rdb *redis.Client, key string, data interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		logger.Warn("ProfileService: failed to marshal cache data: %v", err)
		return
	}
	if err := rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
		logger.Warn("ProfileService: failed to set cache: %v", err)
	}
}

// Profile loads the signed-in user's profile
func (s *ProfileService) Profile(ctx context.Context, sess *session.Session) (*models.Profile, error) {
	if !sess.Authenticated(ctx) {
		return nil, polydebate.ErrNoToken
	}

	if user, err := sess.User(ctx); err == nil && user != nil {
		if cached, err := getFromCache[models.Profile](ctx, s.redis, profileCacheKey(user.ID)); err == nil && cached != nil {
			return cached, nil
		}
	}

	profile, err := s.api.WithTokens(sess).GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	setCache(ctx, s.redis, profileCacheKey(profile.User.ID), profile, ProfileCacheTTL)
	return profile, nil
}

// UpdateName renames the user, refreshes the cached session user and drops
// the cached profile
func (s *ProfileService) UpdateName(ctx context.Context, sess *session.Session, name string) (*models.User, error) {
	if err := polydebate.ValidateName(name); err != nil {
		return nil, err
	}
	if !sess.Authenticated(ctx) {
		return nil, polydebate.ErrNoToken
	}

	user, err := s.api.WithTokens(sess).UpdateProfile(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := sess.SetUser(ctx, user); err != nil {
		logger.Warn("ProfileService: failed to refresh cached user: %v", err)
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, profileCacheKey(user.ID)).Err(); err != nil {
			logger.Warn("ProfileService: failed to drop cached profile: %v", err)
		}
	}
	return user, nil
}

// Debates pages through the user's debates, sorted "recent" or "rounds"
func (s *ProfileService) Debates(ctx context.Context, sess *session.Session, sort string, offset int) (*models.UserDebateList, error) {
	if !sess.Authenticated(ctx) {
		return nil, polydebate.ErrNoToken
	}
	return s.api.WithTokens(sess).ListUserDebates(ctx, polydebate.UserDebateQuery{
		Limit:  DebatesPageSize,
		Offset: offset,
		Sort:   sort,
	})
}

// TopDebates returns the user's standout debates of a kind
func (s *ProfileService) TopDebates(ctx context.Context, sess *session.Session, kind string, limit int) (*models.TopDebates, error) {
	if !sess.Authenticated(ctx) {
		return nil, polydebate.ErrNoToken
	}
	return s.api.WithTokens(sess).TopDebates(ctx, kind, limit)
}
