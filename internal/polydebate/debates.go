package polydebate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/polydebate/frontend/internal/models"
)

// Limits enforced by the backend; checked locally so obviously bad requests never leave
const (
	MaxModelsPerDebate = 10
	MaxRounds          = 10
)

// ValidateStartDebate mirrors the backend's request validation
func ValidateStartDebate(req models.StartDebateRequest) error {
	if strings.TrimSpace(req.MarketID) == "" {
		return &ValidationError{Field: "market_id", Message: "market_id is required"}
	}
	if len(req.ModelIDs) == 0 {
		return &ValidationError{Field: "model_ids", Message: "Select at least one model"}
	}
	if len(req.ModelIDs) > MaxModelsPerDebate {
		return &ValidationError{Field: "model_ids", Message: fmt.Sprintf("Maximum %d models allowed per debate", MaxModelsPerDebate)}
	}
	if req.Rounds < 1 || req.Rounds > MaxRounds {
		return &ValidationError{Field: "rounds", Message: fmt.Sprintf("Rounds must be between 1 and %d", MaxRounds)}
	}
	return nil
}

// StartDebate creates a debate
// POST /api/debate/start
func (c *Client) StartDebate(ctx context.Context, req models.StartDebateRequest) (*models.Debate, error) {
	if err := ValidateStartDebate(req); err != nil {
		return nil, err
	}
	var debate models.Debate
	if err := c.do(ctx, http.MethodPost, "/api/debate/start", req, &debate); err != nil {
		return nil, err
	}
	return &debate, nil
}

// GetDebate fetches a debate with its messages
// GET /api/debate/<id>
func (c *Client) GetDebate(ctx context.Context, id string) (*models.Debate, error) {
	var debate models.Debate
	if err := c.get(ctx, debatePath(id, ""), nil, &debate); err != nil {
		return nil, err
	}
	return &debate, nil
}

// DebateControlResult is the response of pause/resume/stop
type DebateControlResult struct {
	DebateID string              `json:"debate_id"`
	Status   models.DebateStatus `json:"status"`
	Message  string              `json:"message,omitempty"`
}

// PauseDebate pauses a running debate
// POST /api/debate/<id>/pause
func (c *Client) PauseDebate(ctx context.Context, id string) (*DebateControlResult, error) {
	return c.controlDebate(ctx, id, "pause")
}

// ResumeDebate resumes a paused debate
// POST /api/debate/<id>/resume
func (c *Client) ResumeDebate(ctx context.Context, id string) (*DebateControlResult, error) {
	return c.controlDebate(ctx, id, "resume")
}

// StopDebate stops a debate for good
// POST /api/debate/<id>/stop
func (c *Client) StopDebate(ctx context.Context, id string) (*DebateControlResult, error) {
	return c.controlDebate(ctx, id, "stop")
}

func (c *Client) controlDebate(ctx context.Context, id, action string) (*DebateControlResult, error) {
	var res DebateControlResult
	if err := c.do(ctx, http.MethodPost, debatePath(id, action), nil, &res); err != nil {
		return nil, err
	}
	if res.DebateID == "" {
		res.DebateID = id
	}
	return &res, nil
}

// GetDebateResults fetches the post-debate report
// GET /api/debate/<id>/results
func (c *Client) GetDebateResults(ctx context.Context, id string) (*models.DebateResults, error) {
	var results models.DebateResults
	if err := c.get(ctx, debatePath(id, "results"), nil, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// GetDebateTranscript fetches the message log only
// GET /api/debate/<id>/transcript
func (c *Client) GetDebateTranscript(ctx context.Context, id string) (*models.DebateTranscript, error) {
	var transcript models.DebateTranscript
	if err := c.get(ctx, debatePath(id, "transcript"), nil, &transcript); err != nil {
		return nil, err
	}
	return &transcript, nil
}

// ListDebates lists all debates
// GET /api/debates
func (c *Client) ListDebates(ctx context.Context) (*models.DebateList, error) {
	var list models.DebateList
	if err := c.get(ctx, "/api/debates", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListMarketDebates lists debates held about one market
// GET /api/markets/<id>/debates
func (c *Client) ListMarketDebates(ctx context.Context, marketID string) (*models.DebateList, error) {
	var list models.DebateList
	if err := c.get(ctx, "/api/markets/"+url.PathEscape(marketID)+"/debates", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UserDebateQuery filters the signed-in user's debate history
type UserDebateQuery struct {
	Limit    int
	Offset   int
	Sort     string // "recent" or "rounds"
	Status   string
	Category string
}

// ListUserDebates lists the signed-in user's debates
// GET /api/profile/debates
func (c *Client) ListUserDebates(ctx context.Context, q UserDebateQuery) (*models.UserDebateList, error) {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	var list models.UserDebateList
	if err := c.get(ctx, "/api/profile/debates", v, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// TopDebates lists the user's recent or favorited debates
// GET /api/profile/debates/top
func (c *Client) TopDebates(ctx context.Context, kind string, limit int) (*models.TopDebates, error) {
	v := url.Values{}
	if kind != "" {
		v.Set("type", kind)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var top models.TopDebates
	if err := c.get(ctx, "/api/profile/debates/top", v, &top); err != nil {
		return nil, err
	}
	return &top, nil
}

func debatePath(id, action string) string {
	p := "/api/debate/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}
