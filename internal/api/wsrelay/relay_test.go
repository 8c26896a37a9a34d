package wsrelay

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHub struct {
	mu           sync.Mutex
	ch           chan polydebate.Event
	subscribed   string
	unsubscribed bool
}

func (h *fakeHub) Subscribe(debateID string) (<-chan polydebate.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribed = debateID
	return h.ch, func() {
		h.mu.Lock()
		h.unsubscribed = true
		h.mu.Unlock()
	}
}

func (h *fakeHub) state() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribed, h.unsubscribed
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestRelayForwardsEventsInOrder(t *testing.T) {
	hub := &fakeHub{ch: make(chan polydebate.Event, 8)}
	srv := httptest.NewServer(New(hub, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv, "/ws/debate/d42")
	defer conn.Close()

	hub.ch <- polydebate.Event{Name: "debate_started", Data: json.RawMessage(`{"round":1}`)}
	hub.ch <- polydebate.Event{Name: "message", Data: json.RawMessage(`{"text":"hi"}`)}
	close(hub.ch)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var got []string
	for i := 0; i < 2; i++ {
		var ev polydebate.Event
		require.NoError(t, conn.ReadJSON(&ev))
		got = append(got, ev.Name)
	}
	assert.Equal(t, []string{"debate_started", "message"}, got)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	id, _ := hub.state()
	assert.Equal(t, "d42", id)
	assert.Eventually(t, func() bool { _, done := hub.state(); return done }, 2*time.Second, 10*time.Millisecond)
}

func TestRelayPassesNonJSONPayloadAsString(t *testing.T) {
	hub := &fakeHub{ch: make(chan polydebate.Event, 8)}
	srv := httptest.NewServer(New(hub, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv, "/ws/debate/d7")
	defer conn.Close()

	hub.ch <- polydebate.Event{Name: "model_thinking", Data: json.RawMessage("GPT-4o is thinking")}
	hub.ch <- polydebate.Event{Name: "keepalive", Data: json.RawMessage{}}
	hub.ch <- polydebate.Event{Name: "message", Data: json.RawMessage(`{"text":"hi"}`)}
	close(hub.ch)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first, second, third polydebate.Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.NoError(t, conn.ReadJSON(&third))

	var text string
	require.NoError(t, json.Unmarshal(first.Data, &text))
	assert.Equal(t, "GPT-4o is thinking", text)
	assert.Equal(t, "keepalive", second.Name)
	assert.Equal(t, "message", third.Name)
	assert.JSONEq(t, `{"text":"hi"}`, string(third.Data))
}

func TestRelayUnsubscribesWhenClientLeaves(t *testing.T) {
	hub := &fakeHub{ch: make(chan polydebate.Event)}
	srv := httptest.NewServer(New(hub, nil).Handler())
	defer srv.Close()

	conn := dial(t, srv, "/ws/debate/d1")
	require.Eventually(t, func() bool { id, _ := hub.state(); return id == "d1" }, 2*time.Second, 10*time.Millisecond)
	conn.Close()

	assert.Eventually(t, func() bool { _, done := hub.state(); return done }, 2*time.Second, 10*time.Millisecond)
}

func TestRelayRejectsForeignOrigin(t *testing.T) {
	hub := &fakeHub{ch: make(chan polydebate.Event)}
	srv := httptest.NewServer(New(hub, []string{"http://localhost:3000"}).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/debate/d1"
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)

	id, _ := hub.state()
	assert.Empty(t, id)
}
