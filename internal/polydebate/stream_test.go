package polydebate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEventsPreservesOrderAndSkipsComments(t *testing.T) {
	raw := strings.Join([]string{
		"event: debate_started",
		`data: {"debate_id":"d1"}`,
		"",
		": keepalive",
		"",
		"event: message",
		`data: {"round":1,`,
		`data: "text":"hi"}`,
		"",
		`data: {"plain":true}`,
		"",
		"event: debate_complete",
		`data: {}`,
		"",
	}, "\n")

	var got []Event
	err := ReadEvents(strings.NewReader(raw), func(ev Event) error {
		got = append(got, ev)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, "debate_started", got[0].Name)
	assert.Equal(t, "message", got[1].Name)
	assert.JSONEq(t, `{"round":1,"text":"hi"}`, string(got[1].Data))
	assert.Equal(t, "message", got[2].Name)
	assert.Equal(t, "debate_complete", got[3].Name)
}

func TestReadEventsStopsOnHandlerError(t *testing.T) {
	raw := "data: 1\n\ndata: 2\n\ndata: 3\n\n"
	count := 0
	err := ReadEvents(strings.NewReader(raw), func(ev Event) error {
		count++
		if count == 2 {
			return ErrStopStream
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrStopStream)
	assert.Equal(t, 2, count)
}

func TestStreamDebateDeliversEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/debate/d1/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := 0; i < 50; i++ {
			fmt.Fprintf(w, "event: message\ndata: {\"sequence\":%d}\n\n", i)
			if i%10 == 0 {
				fmt.Fprint(w, ": keepalive\n\n")
			}
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := New(srv.URL, nil).WithTokens(&memTokens{token: "tok"})

	var seq []string
	err := client.StreamDebate(context.Background(), "d1", func(ev Event) error {
		seq = append(seq, string(ev.Data))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, seq, 50)
	for i, data := range seq {
		assert.Equal(t, fmt.Sprintf(`{"sequence":%d}`, i), data)
	}
}

func TestStreamDebateSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"debate_not_found","message":"Debate d9 not found"}}`))
	}))
	defer srv.Close()

	err := New(srv.URL, nil).StreamDebate(context.Background(), "d9", func(Event) error { return nil })
	require.Error(t, err)
	assert.Equal(t, "Debate d9 not found", err.Error())
}
