/**
 * @description
 * Debate transport objects: the debate itself, its append-only message log,
 * and the results document produced once a debate completes.
 */

package models

// DebateStatus is the lifecycle state of a debate
type DebateStatus string

const (
	DebateInitialized DebateStatus = "initialized"
	DebateInProgress  DebateStatus = "in_progress"
	DebatePaused      DebateStatus = "paused"
	DebateCompleted   DebateStatus = "completed"
	DebateStopped     DebateStatus = "stopped"
)

// Terminal reports whether no further transitions can happen
func (s DebateStatus) Terminal() bool {
	return s == DebateCompleted || s == DebateStopped
}

// Valid reports whether s is a known status
func (s DebateStatus) Valid() bool {
	switch s {
	case DebateInitialized, DebateInProgress, DebatePaused, DebateCompleted, DebateStopped:
		return true
	}
	return false
}

// MessageType classifies a debate message by its place in the round structure
type MessageType string

const (
	MessageInitial  MessageType = "initial"
	MessageRebuttal MessageType = "rebuttal"
	MessageFinal    MessageType = "final"
)

// Normalize maps the backend's "debate" alias onto rebuttal
func (t MessageType) Normalize() MessageType {
	switch t {
	case MessageInitial, MessageFinal:
		return t
	default:
		return MessageRebuttal
	}
}

// DebateModel is a model taking part in a debate
type DebateModel struct {
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	Provider  string `json:"provider"`
}

// DebateMessage is one model's contribution within a round
type DebateMessage struct {
	MessageID     string         `json:"message_id"`
	Round         int            `json:"round"`
	Sequence      int            `json:"sequence"`
	ModelID       string         `json:"model_id"`
	ModelName     string         `json:"model_name"`
	MessageType   MessageType    `json:"message_type"`
	Text          string         `json:"text"`
	Predictions   map[string]int `json:"predictions"` // outcome -> 0..100
	AudioURL      *string        `json:"audio_url,omitempty"`
	AudioDuration *float64       `json:"audio_duration,omitempty"`
	Timestamp     string         `json:"timestamp"`
}

// Debate is a multi-round exchange among AI models about one market
type Debate struct {
	DebateID          string                    `json:"debate_id"`
	Status            DebateStatus              `json:"status"`
	MarketID          string                    `json:"market_id"`
	MarketQuestion    string                    `json:"market_question"`
	MarketDescription string                    `json:"market_description,omitempty"`
	Outcomes          []Outcome                 `json:"outcomes"`
	PolymarketOdds    map[string]int            `json:"polymarket_odds"`
	SelectedModels    []DebateModel             `json:"selected_models"`
	Rounds            int                       `json:"rounds"`
	CurrentRound      int                       `json:"current_round"`
	Messages          []DebateMessage           `json:"messages"`
	FinalSummary      *DebateSummary            `json:"final_summary,omitempty"`
	FinalPredictions  map[string]map[string]int `json:"final_predictions,omitempty"`
	CreatedAt         string                    `json:"created_at"`
	CompletedAt       *string                   `json:"completed_at,omitempty"`
	Paused            bool                      `json:"paused"`
}

// ModelRationale is one model's closing argument in the results summary
type ModelRationale struct {
	ModelID   string `json:"model_id"`
	ModelName string `json:"model_name"`
	Rationale string `json:"rationale"`
}

// DebateSummary is the synthesized narrative of a completed debate
type DebateSummary struct {
	Overall        string           `json:"overall"`
	Consensus      string           `json:"consensus"`
	Disagreements  []string         `json:"disagreements"`
	ModelRationale []ModelRationale `json:"model_rationales"`
}

// Statistics sources
const (
	StatisticsFromBackend = "backend"
	StatisticsDerived     = "derived"
)

// OutcomeStatistics aggregates final-round predictions for one outcome
type OutcomeStatistics struct {
	Outcome    string  `json:"outcome"`
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	Variance   float64 `json:"variance"`
	MarketOdds int     `json:"market_odds"`
	Delta      float64 `json:"delta"` // mean AI prediction minus market odds, in points
	Samples    int     `json:"samples"`
}

// DebateStatistics is the aggregate part of a results document
type DebateStatistics struct {
	Outcomes []OutcomeStatistics `json:"outcomes"`
	Source   string              `json:"source,omitempty"`
}

// DebateResults is produced once, after a debate completes
type DebateResults struct {
	DebateID         string                    `json:"debate_id"`
	Summary          *DebateSummary            `json:"summary,omitempty"`
	Statistics       *DebateStatistics         `json:"statistics,omitempty"`
	FinalPredictions map[string]map[string]int `json:"final_predictions,omitempty"`
}

// DebateTranscript wraps GET /api/debate/<id>/transcript
type DebateTranscript struct {
	DebateID string          `json:"debate_id"`
	Messages []DebateMessage `json:"messages"`
}

// DebateListItem is a row of a debate listing
type DebateListItem struct {
	DebateID       string       `json:"debate_id"`
	MarketID       string       `json:"market_id,omitempty"`
	MarketQuestion string       `json:"market_question"`
	Category       string       `json:"category,omitempty"`
	Status         DebateStatus `json:"status"`
	ModelsCount    int          `json:"models_count"`
	Rounds         int          `json:"rounds"`
	CreatedAt      string       `json:"created_at"`
	CompletedAt    *string      `json:"completed_at,omitempty"`
}

// DebateList wraps GET /api/debates and its per-market variant
type DebateList struct {
	Debates []DebateListItem `json:"debates"`
	Total   int              `json:"total"`
}

// Pagination is the paging block of profile listings
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// UserDebateList wraps GET /api/profile/debates
type UserDebateList struct {
	Debates    []DebateListItem `json:"debates"`
	Pagination Pagination       `json:"pagination"`
}

// TopDebates wraps GET /api/profile/debates/top
type TopDebates struct {
	Type    string           `json:"type"`
	Debates []DebateListItem `json:"debates"`
}

// StartDebateRequest is the body of POST /api/debate/start
type StartDebateRequest struct {
	MarketID string   `json:"market_id"`
	ModelIDs []string `json:"model_ids"`
	Rounds   int      `json:"rounds"`
}

// StreamEvent names emitted on the debate push stream
const (
	EventDebateStarted  = "debate_started"
	EventModelThinking  = "model_thinking"
	EventMessage        = "message"
	EventError          = "error"
	EventDebateComplete = "debate_complete"
)
