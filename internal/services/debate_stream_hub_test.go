package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan polydebate.Event) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, string(ev.Data))
		case <-timeout:
			t.Fatal("stream did not close")
			return got
		}
	}
}

func TestHubSharesOneUpstreamAndPreservesOrder(t *testing.T) {
	var connects int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&connects, 1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release
		for i := 0; i < 20; i++ {
			fmt.Fprintf(w, "event: message\ndata: %d\n\n", i)
		}
	}))
	defer srv.Close()

	hub := NewDebateStreamHub(polydebate.New(srv.URL, nil), 64)
	a, unsubA := hub.Subscribe("d1")
	defer unsubA()
	b, unsubB := hub.Subscribe("d1")
	defer unsubB()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&connects) == 1 }, 2*time.Second, 10*time.Millisecond)
	close(release)

	want := make([]string, 20)
	for i := range want {
		want[i] = fmt.Sprint(i)
	}
	assert.Equal(t, want, drain(t, a))
	assert.Equal(t, want, drain(t, b))
	assert.Equal(t, int32(1), atomic.LoadInt32(&connects))
	assert.Eventually(t, func() bool { return !hub.Active("d1") }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDisconnectsSlowSubscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, "data: %d\n\n", i)
			w.(http.Flusher).Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	hub := NewDebateStreamHub(polydebate.New(srv.URL, nil), 2)
	slow, unsub := hub.Subscribe("d1")
	defer unsub()

	// not reading: the third event overflows the buffer
	require.Eventually(t, func() bool { return !hub.Active("d1") }, 5*time.Second, 10*time.Millisecond)

	got := drain(t, slow)
	assert.Equal(t, []string{"0", "1"}, got, "a slow subscriber sees a prefix, never a gap")
}

func TestHubClosesUpstreamWhenLastSubscriberLeaves(t *testing.T) {
	closed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(closed)
	}))
	defer srv.Close()

	hub := NewDebateStreamHub(polydebate.New(srv.URL, nil), 8)
	_, unsub := hub.Subscribe("d1")
	require.True(t, hub.Active("d1"))

	unsub()
	assert.False(t, hub.Active("d1"))
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("upstream stream was not closed")
	}
}

func TestHubCloseEndsStreams(t *testing.T) {
	var open int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		atomic.AddInt32(&open, 1)
		defer atomic.AddInt32(&open, -1)
		fmt.Fprint(w, "data: 0\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	hub := NewDebateStreamHub(polydebate.New(srv.URL, nil), 8)
	a, unsubA := hub.Subscribe("d1")
	defer unsubA()
	b, unsubB := hub.Subscribe("d2")
	defer unsubB()
	require.Eventually(t, func() bool { return len(a) == 1 && len(b) == 1 }, 5*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.False(t, hub.Active("d1"))
	assert.False(t, hub.Active("d2"))
	assert.Equal(t, []string{"0"}, drain(t, a))
	assert.Equal(t, []string{"0"}, drain(t, b))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&open) == 0 }, 5*time.Second, 10*time.Millisecond)

	late, unsub := hub.Subscribe("d3")
	defer unsub()
	assert.Empty(t, drain(t, late))
	assert.False(t, hub.Active("d3"))
}
