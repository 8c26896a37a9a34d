/**
 * @description
 * Server-push (SSE) stream for one live debate.
 * Every event is handed to the caller unchanged and in transport order.
 *
 * @notes
 * - No buffering, replay or reconnect. A transport error closes the stream,
 *   is logged as a diagnostic, and returned; callers detect silence themselves.
 * - Comment lines (": keepalive") are not events.
 */

package polydebate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/polydebate/frontend/internal/logger"
)

// Event is one server-sent event. Data is the raw payload, opaque to the transport.
type Event struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// EventHandler receives events in transport order. Returning an error closes the stream.
type EventHandler func(Event) error

// ErrStopStream can be returned by a handler to close the stream without error
var ErrStopStream = errors.New("stream stopped by handler")

// StreamDebate opens GET /api/debate/<id>/stream and blocks until the stream ends,
// ctx is cancelled, or the handler returns an error.
func (c *Client) StreamDebate(ctx context.Context, debateID string, handle EventHandler) error {
	req, err := c.newRequest(ctx, http.MethodGet, debatePath(debateID, "stream"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.StreamClient.Do(req)
	if err != nil {
		err = c.transportError(ctx, err)
		logger.Error("debate stream %s: connect failed: %v", debateID, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := decodeError(resp)
		logger.Error("debate stream %s: %v", debateID, err)
		return err
	}

	err = ReadEvents(resp.Body, handle)
	switch {
	case err == nil, errors.Is(err, ErrStopStream):
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		logger.Error("debate stream %s closed: %v", debateID, err)
		return err
	}
}

// ReadEvents parses an SSE byte stream and dispatches each complete event.
// It returns nil at a clean EOF.
func ReadEvents(r io.Reader, handle EventHandler) error {
	reader := bufio.NewReaderSize(r, 64<<10)

	var (
		name string
		id   string
		data strings.Builder
		has  bool
	)

	dispatch := func() error {
		if !has {
			name, id = "", ""
			return nil
		}
		ev := Event{ID: id, Name: name, Data: json.RawMessage(data.String())}
		if ev.Name == "" {
			ev.Name = "message"
		}
		name, id, has = "", "", false
		data.Reset()
		return handle(ev)
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			if herr := dispatch(); herr != nil {
				return herr
			}
		case strings.HasPrefix(line, ":"):
			// comment / keepalive
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			switch field {
			case "event":
				name = value
			case "data":
				if has {
					data.WriteByte('\n')
				}
				data.WriteString(value)
				has = true
			case "id":
				id = value
			}
		}

		if eof {
			// a final event without its blank line is incomplete and dropped
			return nil
		}
	}
}
