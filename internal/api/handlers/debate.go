/**
 * @description
 * Debate pages and endpoints.
 * The debate page switches between live transcript and analytics report by
 * status. The live stream is relayed from the shared DebateStreamHub.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - frontend/internal/services
 */

package handlers

import (
	"bufio"
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/polydebate/frontend/internal/api/middleware"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
)

// keepaliveInterval keeps proxies from timing out a quiet debate stream
const keepaliveInterval = 15 * time.Second

type DebateHandler struct {
	Debates *services.DebateService
	Hub     *services.DebateStreamHub
}

func NewDebateHandler(debates *services.DebateService, hub *services.DebateStreamHub) *DebateHandler {
	return &DebateHandler{Debates: debates, Hub: hub}
}

// RecoveryAction is the single way out of a fatal page error
type RecoveryAction struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// GetDebate renders a debate page
// GET /debate/:id
func (h *DebateHandler) GetDebate(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "DebateHandler.GetDebate", err)
	}

	view, err := h.Debates.View(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("DebateHandler: failed to load debate %s: %v", c.Params("id"), err)
		}
		return c.Status(status).JSON(fiber.Map{
			"error":    body,
			"recovery": RecoveryAction{Label: "Back to markets", Href: middleware.HomePath},
		})
	}
	return c.JSON(view)
}

// StartDebate launches a debate for a market
// POST /api/debate/start
func (h *DebateHandler) StartDebate(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "DebateHandler.StartDebate", err)
	}

	var req models.StartDebateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Invalid request body"})
	}

	debate, err := h.Debates.Start(c.UserContext(), sess, req)
	if err != nil {
		return respondError(c, "DebateHandler.StartDebate", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"debate":   debate,
		"redirect": "/debate/" + debate.DebateID,
	})
}

// ControlDebate pauses, resumes or stops a debate
// POST /api/debate/:id/:action
func (h *DebateHandler) ControlDebate(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "DebateHandler.ControlDebate", err)
	}

	res, err := h.Debates.Control(c.UserContext(), sess, c.Params("id"), c.Params("action"))
	if err != nil {
		return respondError(c, "DebateHandler.ControlDebate", err)
	}
	return c.JSON(res)
}

// GetResults returns the report of a completed debate
// GET /api/debate/:id/results
func (h *DebateHandler) GetResults(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "DebateHandler.GetResults", err)
	}
	results, err := h.Debates.Results(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return respondError(c, "DebateHandler.GetResults", err)
	}
	return c.JSON(results)
}

// GetTranscript returns the message log of a debate
// GET /api/debate/:id/transcript
func (h *DebateHandler) GetTranscript(c *fiber.Ctx) error {
	sess, err := middleware.GetSession(c)
	if err != nil {
		return respondError(c, "DebateHandler.GetTranscript", err)
	}
	transcript, err := h.Debates.Transcript(c.UserContext(), sess, c.Params("id"))
	if err != nil {
		return respondError(c, "DebateHandler.GetTranscript", err)
	}
	return c.JSON(transcript)
}

// ListDebates returns recent debates, optionally for one market
// GET /api/debates?market_id=
func (h *DebateHandler) ListDebates(c *fiber.Ctx) error {
	list, err := h.Debates.List(c.UserContext(), c.Query("market_id"))
	if err != nil {
		return respondError(c, "DebateHandler.ListDebates", err)
	}
	return c.JSON(list)
}

// StreamDebate relays a debate's live events over SSE
// GET /debate/:id/stream
func (h *DebateHandler) StreamDebate(c *fiber.Ctx) error {
	debateID := c.Params("id")
	if debateID == "" {
		return errorJSON(c, fiber.StatusBadRequest, ErrorBody{Code: "validation_error", Message: "Debate id is required"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	events, unsubscribe := h.Hub.Subscribe(debateID)
	requestDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-requestDone:
				return
			case <-ticker.C:
				fmt.Fprint(w, ": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case ev, ok := <-events:
				if !ok {
					return
				}
				writeEvent(w, ev)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// writeEvent encodes one event in SSE framing, one data line per payload line
func writeEvent(w *bufio.Writer, ev polydebate.Event) {
	if ev.ID != "" {
		fmt.Fprintf(w, "id: %s\n", ev.ID)
	}
	if ev.Name != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Name)
	}
	for _, line := range bytes.Split(ev.Data, []byte("\n")) {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	w.WriteString("\n")
}
