package polydebate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/polydebate/frontend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTokens struct {
	token string
	user  *models.User
}

func (m *memTokens) Token(context.Context) (string, error) { return m.token, nil }

func (m *memTokens) SaveSession(_ context.Context, token string, user *models.User) error {
	m.token, m.user = token, user
	return nil
}

func (m *memTokens) ClearSession(context.Context) error {
	m.token, m.user = "", nil
	return nil
}

func TestAPIErrorUsesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"debate_not_found","message":"Debate abc not found"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GetDebate(context.Background(), "abc")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "debate_not_found", apiErr.Code)
	assert.Equal(t, "Debate abc not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnreachable(err))
}

func TestAPIErrorFallsBackToStatusMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream down</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).ListCategories(context.Background())
	require.Error(t, err)
	assert.Equal(t, "HTTP 502: Bad Gateway", err.Error())
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).ListMarkets(context.Background(), MarketQuery{Limit: 10})
	require.Error(t, err)
	assert.True(t, IsUnreachable(err))
	assert.Equal(t, "backend unreachable at "+url, err.Error())
}

func TestCancelledContextIsNotAnOutage(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, nil).ListModels(ctx)
	require.Error(t, err)
	assert.False(t, IsUnreachable(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBearerTokenFollowsSessionLifecycle(t *testing.T) {
	var lastAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/auth/login/verify-code":
			var body verifyRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "123456", body.Code)
			_, _ = w.Write([]byte(`{"success":true,"message":"Login successful","data":{"token":"tok-1","user":{"id":7,"email":"a@b.co","name":"Ada"}}}`))
		case "/api/favorites":
			_, _ = w.Write([]byte(`{"success":true,"data":{"favorites":[],"total":0}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	store := &memTokens{}
	client := New(srv.URL, nil).WithTokens(store)
	ctx := context.Background()

	user, err := client.LoginVerifyCode(ctx, "a@b.co", "123456")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "tok-1", store.token)

	_, err = client.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", lastAuth.Load())

	require.NoError(t, client.Logout(ctx))
	assert.Empty(t, store.token)

	_, err = client.ListFavorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", lastAuth.Load())
}

func TestVerifyCodeLengthCheckedBeforeRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"success":true,"data":{"token":"t","user":{"id":1}}}`))
	}))
	defer srv.Close()

	client := New(srv.URL, nil).WithTokens(&memTokens{})

	for _, code := range []string{"", "123", "12345", "1234567"} {
		_, err := client.SignupVerifyCode(context.Background(), "a@b.co", code)
		require.Error(t, err, code)
		assert.True(t, IsValidation(err), code)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	_, err := client.SignupVerifyCode(context.Background(), "a@b.co", "654321")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAddFavoriteTreatsDuplicateAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"already_exists","message":"Market already in favorites"}}`))
	}))
	defer srv.Close()

	fav, err := New(srv.URL, nil).AddFavorite(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", fav.MarketID)
}

func TestStartDebateValidatesLocally(t *testing.T) {
	client := New("http://127.0.0.1:1", nil)

	_, err := client.StartDebate(context.Background(), models.StartDebateRequest{MarketID: "m", Rounds: 3})
	assert.True(t, IsValidation(err))

	_, err = client.StartDebate(context.Background(), models.StartDebateRequest{MarketID: "m", ModelIDs: []string{"a"}, Rounds: 11})
	assert.True(t, IsValidation(err))
}

func TestCategoryListingUsesPathVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/markets/category/breaking", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"markets":[{"id":"1","question":"Q","category":"Breaking","outcomes":[],"volume":"1.2M"}],"has_more":false}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, nil).ListCategoryMarkets(context.Background(), CategoryBreaking, MarketQuery{Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Markets, 1)
	assert.Equal(t, "1.2M", page.Markets[0].Volume)
}
