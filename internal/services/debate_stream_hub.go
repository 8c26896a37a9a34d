package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"go.uber.org/zap"
)

const DefaultSubscriberBuffer = 256

// DebateStreamHub multiplexes one upstream debate stream to many SSE and
// websocket clients. The backend runs a debate while its stream is open, so
// a second upstream connection for the same debate must never be opened.
//
// Events reach every subscriber in upstream order. A subscriber whose buffer
// fills up is disconnected (its channel closed) instead of losing events.
type DebateStreamHub struct {
	api        *polydebate.Client
	bufferSize int

	// every upstream derives from root so Close can end them all
	root   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	streams map[string]*debateStream
}

type debateStream struct {
	cancel      context.CancelFunc
	subscribers map[chan polydebate.Event]struct{}
}

func NewDebateStreamHub(api *polydebate.Client, bufferSize int) *DebateStreamHub {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriberBuffer
	}
	root, cancel := context.WithCancel(context.Background())
	return &DebateStreamHub{
		api:        api,
		bufferSize: bufferSize,
		root:       root,
		cancel:     cancel,
		streams:    make(map[string]*debateStream),
	}
}

// Subscribe registers a listener for debateID, opening the upstream stream if
// needed, and returns a channel plus cleanup function. The channel is closed
// when the upstream ends, the subscriber falls behind or the hub is closed.
func (h *DebateStreamHub) Subscribe(debateID string) (<-chan polydebate.Event, func()) {
	ch := make(chan polydebate.Event, h.bufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	st, ok := h.streams[debateID]
	if !ok {
		ctx, cancel := context.WithCancel(h.root)
		st = &debateStream{cancel: cancel, subscribers: make(map[chan polydebate.Event]struct{})}
		h.streams[debateID] = st
		go h.run(ctx, debateID, st)
	}
	st.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := st.subscribers[ch]; ok {
			delete(st.subscribers, ch)
			close(ch)
		}
		h.releaseLocked(debateID, st)
	}
	return ch, unsubscribe
}

// Active reports whether an upstream stream is open for debateID
func (h *DebateStreamHub) Active(debateID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.streams[debateID]
	return ok
}

// Close ends every upstream stream and closes all subscriber channels.
// Later subscriptions receive an already closed channel.
func (h *DebateStreamHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.cancel()
	for id, st := range h.streams {
		for sub := range st.subscribers {
			delete(st.subscribers, sub)
			close(sub)
		}
		delete(h.streams, id)
	}
}

// releaseLocked closes the upstream once nobody is listening
func (h *DebateStreamHub) releaseLocked(debateID string, st *debateStream) {
	if len(st.subscribers) > 0 {
		return
	}
	st.cancel()
	if h.streams[debateID] == st {
		delete(h.streams, debateID)
	}
}

func (h *DebateStreamHub) run(ctx context.Context, debateID string, st *debateStream) {
	err := h.api.StreamDebate(ctx, debateID, func(ev polydebate.Event) error {
		h.broadcast(debateID, st, ev)
		return nil
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
		logger.With(zap.String("debate_id", debateID)).Warn("DebateStreamHub: upstream stream failed", zap.Error(err))
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		h.broadcastLocked(debateID, st, polydebate.Event{Name: models.EventError, Data: data})
	}
	for sub := range st.subscribers {
		delete(st.subscribers, sub)
		close(sub)
	}
	st.cancel()
	if h.streams[debateID] == st {
		delete(h.streams, debateID)
	}
}

func (h *DebateStreamHub) broadcast(debateID string, st *debateStream, ev polydebate.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(debateID, st, ev)
	h.releaseLocked(debateID, st)
}

func (h *DebateStreamHub) broadcastLocked(debateID string, st *debateStream, ev polydebate.Event) {
	for sub := range st.subscribers {
		select {
		case sub <- ev:
		default:
			logger.Warn("DebateStreamHub: subscriber of %s fell behind, disconnecting", debateID)
			delete(st.subscribers, sub)
			close(sub)
		}
	}
}
