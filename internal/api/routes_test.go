package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	app     *fiber.App
	store   session.Store
	manager *session.Manager
	hits    map[string]*int32
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc) *harness {
	t.Helper()

	h := &harness{hits: make(map[string]*int32)}
	mux := http.NewServeMux()
	for path, fn := range routes {
		path, fn := path, fn
		var n int32
		h.hits[path] = &n
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&n, 1)
			fn(w, r)
		})
	}
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.Session.TTL = time.Hour
	cfg.Feed.PageSize = 20
	cfg.Feed.BreakingTopN = 20

	h.store = session.NewRedisStore(rdb, time.Hour)
	h.manager = session.NewManager(h.store)
	h.app = fiber.New()
	SetupRoutes(h.app, h.manager, NewServices(polydebate.New(backend.URL, nil), rdb, cfg), cfg)
	return h
}

func (h *harness) count(path string) int32 {
	if n, ok := h.hits[path]; ok {
		return atomic.LoadInt32(n)
	}
	return 0
}

// signIn seeds a session as if a token had already been validated
func (h *harness) signIn(t *testing.T, user *models.User) string {
	t.Helper()
	sid := uuid.New().String()
	ctx := context.Background()
	require.NoError(t, h.manager.Session(sid).SaveSession(ctx, "tok-1", user))
	require.NoError(t, h.store.Set(ctx, sid, middleware.KeyBootstrapped, "1"))
	return sid
}

func (h *harness) do(t *testing.T, method, target, sid, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sid})
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func fail(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

var adminBackend = map[string]http.HandlerFunc{
	"/api/admin/users":     reply(`{"success":true,"data":[{"id":1,"email":"a@b.co","name":"Ada","is_admin":true}]}`),
	"/api/admin/debates":   reply(`{"success":true,"data":[]}`),
	"/api/admin/analytics": reply(`{"success":true,"data":{"total_users":1,"total_debates":3}}`),
}

func TestSessionCookieIssued(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/markets":    reply(`{"markets":[],"has_more":false}`),
		"/api/categories": reply(`{"categories":[]}`),
	})

	resp := h.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sid string
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			sid = c.Value
			assert.True(t, c.HttpOnly)
		}
	}
	_, err := uuid.Parse(sid)
	assert.NoError(t, err, "session cookie should carry a uuid")
}

func TestAdminGate(t *testing.T) {
	h := newHarness(t, adminBackend)

	t.Run("no token goes to admin login", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/admin", "", "")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, middleware.AdminLoginPath, resp.Header.Get("Location"))
	})

	t.Run("non-admin goes home", func(t *testing.T) {
		sid := h.signIn(t, &models.User{ID: 2, Email: "u@b.co", IsAdmin: false})
		resp := h.do(t, http.MethodGet, "/admin", sid, "")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, middleware.HomePath, resp.Header.Get("Location"))
	})

	t.Run("malformed user is unauthenticated", func(t *testing.T) {
		sid := h.signIn(t, &models.User{ID: 3})
		require.NoError(t, h.store.Set(context.Background(), sid, session.KeyUser, "{not json"))
		resp := h.do(t, http.MethodGet, "/admin", sid, "")
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, middleware.AdminLoginPath, resp.Header.Get("Location"))
	})

	t.Run("admin sees dashboard", func(t *testing.T) {
		sid := h.signIn(t, &models.User{ID: 1, Email: "a@b.co", IsAdmin: true})
		resp := h.do(t, http.MethodGet, "/admin", sid, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		analytics := body["analytics"].(map[string]interface{})
		assert.Equal(t, float64(3), analytics["total_debates"])
	})

	t.Run("admin api answers json", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, "/api/admin/users", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, middleware.AdminLoginPath, body["error"].(map[string]interface{})["redirect"])
	})

	t.Run("admin login page stays reachable", func(t *testing.T) {
		resp := h.do(t, http.MethodGet, middleware.AdminLoginPath, "", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestProtectedRoutesRedirect(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/profile", "", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, middleware.LoginPath, resp.Header.Get("Location"))

	resp = h.do(t, http.MethodPost, "/api/favorites/m1/toggle", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "unauthenticated", body["error"].(map[string]interface{})["code"])
}

func TestDebatePageFetchFailureRendersRecovery(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/debate/missing": fail(http.StatusNotFound, `{"error":{"code":"not_found","message":"Debate not found"}}`),
	})

	resp := h.do(t, http.MethodGet, "/debate/missing", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Debate not found", body["error"].(map[string]interface{})["message"])
	assert.Equal(t, "/", body["recovery"].(map[string]interface{})["href"])
}

func TestBackendOutageIsRetryable(t *testing.T) {
	h := newHarness(t, nil)
	// A backend that is gone: point the services at a closed server
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cfg := &config.Config{}
	h.app = fiber.New()
	SetupRoutes(h.app, h.manager, NewServices(polydebate.New(dead.URL, nil), rdb, cfg), cfg)

	resp := h.do(t, http.MethodGet, "/api/models", "", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	errBody := decode(t, resp)["error"].(map[string]interface{})
	assert.Equal(t, "backend_unreachable", errBody["code"])
	assert.Equal(t, true, errBody["retry"])
}

func TestBootstrapClearsRejectedToken(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/auth/me": fail(http.StatusUnauthorized, `{"error":{"code":"invalid_token","message":"Token expired"}}`),
	})
	sid := uuid.New().String()
	ctx := context.Background()
	require.NoError(t, h.manager.Session(sid).SaveSession(ctx, "stale", &models.User{ID: 9}))

	resp := h.do(t, http.MethodGet, "/api/auth/me", sid, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["authenticated"])
	assert.Nil(t, body["user"])
	assert.Equal(t, int32(1), h.count("/api/auth/me"))

	tok, err := h.manager.Session(sid).Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestBootstrapRunsOncePerSession(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/auth/me": reply(`{"success":true,"data":{"user":{"id":5,"email":"e@x.io","name":"Eve"}}}`),
	})
	sid := uuid.New().String()
	require.NoError(t, h.manager.Session(sid).SaveSession(context.Background(), "tok", &models.User{ID: 5}))

	for i := 0; i < 3; i++ {
		resp := h.do(t, http.MethodGet, "/api/auth/me", sid, "")
		body := decode(t, resp)
		assert.Equal(t, "Eve", body["user"].(map[string]interface{})["name"])
	}
	assert.Equal(t, int32(1), h.count("/api/auth/me"))
}

func TestLoginFlowSignsSessionIn(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/auth/login/request-code": reply(`{"success":true,"message":"Code sent","expiry_minutes":10}`),
		"/api/auth/login/verify-code": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["code"] != "123456" {
				fail(http.StatusBadRequest, `{"error":{"code":"invalid_code","message":"Invalid code"}}`)(w, r)
				return
			}
			reply(`{"success":true,"data":{"token":"tok-new","user":{"id":7,"email":"a@b.co","name":"Ann"}}}`)(w, r)
		},
		"/api/favorites": reply(`{"success":true,"data":{"favorites":[{"id":1,"market_id":"m9"}],"total":1}}`),
	})
	sid := uuid.New().String()

	resp := h.do(t, http.MethodPost, "/api/auth/login/verify", sid, `{"code":"123456"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "verify before request-code is the wrong step")

	resp = h.do(t, http.MethodPost, "/api/auth/login/request-code", sid, `{"email":"a@b.co"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	flow := decode(t, resp)["flow"].(map[string]interface{})
	assert.Equal(t, "code_entry", flow["step"])
	assert.Equal(t, float64(10), flow["expiry_minutes"])

	resp = h.do(t, http.MethodPost, "/api/auth/login/verify", sid, `{"code":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Invalid code", body["error"].(map[string]interface{})["message"])
	assert.Equal(t, "code_entry", body["flow"].(map[string]interface{})["step"])

	resp = h.do(t, http.MethodPost, "/api/auth/login/verify", sid, `{"code":"123456"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", decode(t, resp)["redirect"])

	ctx := context.Background()
	tok, err := h.manager.Session(sid).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-new", tok)
	favs, err := h.manager.Session(sid).FavoriteIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, favs, "m9")
}

func TestBreakingFeedRanksByMovement(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/markets/category/breaking": reply(`{"markets":[
			{"id":"a","question":"A","price_change_24h":5},
			{"id":"b","question":"B","price_change_24h":-12},
			{"id":"c","question":"C","price_change_24h":3}
		],"has_more":false}`),
		"/api/categories": reply(`{"categories":[]}`),
	})

	resp := h.do(t, http.MethodGet, "/?category=breaking", uuid.New().String(), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	var ids []string
	for _, m := range body["markets"].([]interface{}) {
		ids = append(ids, m.(map[string]interface{})["id"].(string))
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
	assert.Equal(t, "ready", body["state"])
}
