package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, time.Hour), mr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     exp.Unix(),
	})
	s, err := tok.SignedString([]byte("not-our-secret"))
	require.NoError(t, err)
	return s
}

func TestStoresRoundTripValuesAndFavorites(t *testing.T) {
	redisStore, _ := newRedisStore(t)
	stores := map[string]Store{
		"redis": redisStore,
		"file":  NewFileStore(filepath.Join(t.TempDir(), "state.json")),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			exerciseStore(t, store)
		})
	}
}

// exerciseStore checks the behaviour every Store backend shares
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	val, err := store.Get(ctx, "s1", KeyToken)
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, store.Set(ctx, "s1", KeyToken, "abc"))
	val, err = store.Get(ctx, "s1", KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", val)

	other, err := store.Get(ctx, "s2", KeyToken)
	require.NoError(t, err)
	assert.Empty(t, other, "sessions must not share state")

	require.NoError(t, store.AddFavorite(ctx, "s1", "m1"))
	require.NoError(t, store.AddFavorite(ctx, "s1", "m1"))
	require.NoError(t, store.AddFavorite(ctx, "s1", "m2"))
	favs, err := store.Favorites(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, favs)

	require.NoError(t, store.RemoveFavorite(ctx, "s1", "m1"))
	favs, err = store.Favorites(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2"}, favs)

	require.NoError(t, store.ReplaceFavorites(ctx, "s1", []string{"a", "b", "a"}))
	favs, err = store.Favorites(ctx, "s1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, favs)

	require.NoError(t, store.Delete(ctx, "s1", KeyToken))
	val, err = store.Get(ctx, "s1", KeyToken)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", KeyToken, "abc"))
	require.NoError(t, store.AddFavorite(ctx, "s1", "m1"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:token"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:favorites"))

	mr.FastForward(2 * time.Hour)
	val, err := store.Get(ctx, "s1", KeyToken)
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestClearSessionRemovesEverythingAndRunsTeardown(t *testing.T) {
	store, _ := newRedisStore(t)
	mgr := NewManager(store)

	var torn []string
	mgr.OnTeardown(func(sid string) { torn = append(torn, sid) })

	ctx := context.Background()
	sess := mgr.Session("s1")
	require.NoError(t, sess.SaveSession(ctx, "tok", &models.User{ID: 1, Name: "Ada"}))
	require.NoError(t, sess.MarkFavorite(ctx, "m1", true))

	require.NoError(t, sess.ClearSession(ctx))

	assert.False(t, sess.Authenticated(ctx))
	user, err := sess.User(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	favs, err := sess.FavoriteIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)
	assert.Equal(t, []string{"s1"}, torn)
}

func TestMalformedCachedUser(t *testing.T) {
	store, _ := newRedisStore(t)
	sess := NewManager(store).Session("s1")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", KeyUser, "{not json"))
	_, err := sess.User(ctx)
	assert.ErrorIs(t, err, ErrMalformedUser)
}

func TestBootstrapWithoutTokenMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	store, _ := newRedisStore(t)
	user, err := NewManager(store).Session("s1").Bootstrap(context.Background(), polydebate.New(srv.URL, nil))
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestBootstrapClearsExpiredTokenLocally(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	store, _ := newRedisStore(t)
	sess := NewManager(store).Session("s1")
	ctx := context.Background()
	require.NoError(t, sess.SaveSession(ctx, signedToken(t, time.Now().Add(-time.Hour)), &models.User{ID: 7}))

	user, err := sess.Bootstrap(ctx, polydebate.New(srv.URL, nil))
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, sess.Authenticated(ctx))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestBootstrapRefreshesUser(t *testing.T) {
	tok := signedToken(t, time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "Bearer "+tok, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true,"data":{"user":{"id":7,"name":"Ada Lovelace","tokens_remaining":9}}}`))
	}))
	defer srv.Close()

	store, _ := newRedisStore(t)
	sess := NewManager(store).Session("s1")
	ctx := context.Background()
	require.NoError(t, sess.SaveSession(ctx, tok, &models.User{ID: 7, Name: "Ada"}))

	user, err := sess.Bootstrap(ctx, polydebate.New(srv.URL, nil))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada Lovelace", user.Name)

	cached, err := sess.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", cached.Name)
}

func TestBootstrapClearsRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid token"}`))
	}))
	defer srv.Close()

	store, _ := newRedisStore(t)
	sess := NewManager(store).Session("s1")
	ctx := context.Background()
	require.NoError(t, sess.SaveSession(ctx, "opaque-token", &models.User{ID: 7}))

	user, err := sess.Bootstrap(ctx, polydebate.New(srv.URL, nil))
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.False(t, sess.Authenticated(ctx))
}

func TestExpiredIgnoresOpaqueTokens(t *testing.T) {
	assert.False(t, expired("opaque", time.Now()))
	assert.True(t, expired(signedToken(t, time.Now().Add(-time.Minute)), time.Now()))
	assert.False(t, expired(signedToken(t, time.Now().Add(time.Minute)), time.Now()))
}
