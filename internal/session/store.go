/**
 * @description
 * Persistence contract for per-session client state: the two string-keyed
 * values (bearer token, serialized user) and the favorited market id set that
 * a browser would otherwise keep in local storage.
 *
 * @notes
 * - Implementations: RedisStore (default), PostgresStore (gorm), FileStore (CLI).
 * - Missing keys read as "" with a nil error.
 */

package session

import "context"

// Well-known keys
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store persists client state per session id
type Store interface {
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Delete(ctx context.Context, sid string, keys ...string) error

	Favorites(ctx context.Context, sid string) ([]string, error)
	AddFavorite(ctx context.Context, sid, marketID string) error
	RemoveFavorite(ctx context.Context, sid, marketID string) error
	ReplaceFavorites(ctx context.Context, sid string, marketIDs []string) error
	ClearFavorites(ctx context.Context, sid string) error
}
