/**
 * @description
 * Debate page orchestration.
 * Loads a debate, then the model catalogue, then (only once the debate has
 * completed) its results document, and decides whether the page shows the
 * live transcript or the final report.
 *
 * @dependencies
 * - frontend/internal/polydebate
 * - frontend/internal/palette
 * - gonum.org/v1/gonum/stat: derived prediction statistics
 *
 * @notes
 * - Failure to load the debate is fatal to the page.
 * - Failure to load the catalogue or the results is logged and swallowed.
 */

package services

import (
	"context"
	"math"
	"sort"

	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/palette"
	"github.com/polydebate/frontend/internal/polydebate"
	"gonum.org/v1/gonum/stat"
)

// DebateMode selects what a debate page renders
type DebateMode string

const (
	ModeTranscript DebateMode = "transcript"
	ModeReport     DebateMode = "report"
)

// Participant is a debating model with its catalogue entry and badge style
type Participant struct {
	models.DebateModel
	Catalogue *models.AIModel `json:"catalogue,omitempty"`
	Badge     palette.Style   `json:"badge"`
}

// DebateView is everything a debate page needs
type DebateView struct {
	Debate             *models.Debate        `json:"debate"`
	Mode               DebateMode            `json:"mode"`
	Participants       []Participant         `json:"participants"`
	Results            *models.DebateResults `json:"results,omitempty"`
	ResultsUnavailable bool                  `json:"results_unavailable,omitempty"`
}

type DebateService struct {
	API     *polydebate.Client
	Markets *MarketService
}

func NewDebateService(api *polydebate.Client, markets *MarketService) *DebateService {
	return &DebateService{API: api, Markets: markets}
}

// View loads a debate page. An error means the debate itself could not be loaded.
func (s *DebateService) View(ctx context.Context, ts polydebate.TokenStore, id string) (*DebateView, error) {
	api := s.API.WithTokens(ts)

	debate, err := api.GetDebate(ctx, id)
	if err != nil {
		return nil, err
	}

	var lookup map[string]models.AIModel
	if catalogue, err := s.Markets.Models(ctx); err != nil {
		logger.Warn("DebateService: model catalogue unavailable for debate %s: %v", id, err)
	} else {
		lookup = catalogue.Lookup()
	}

	view := &DebateView{
		Debate:       debate,
		Mode:         ModeTranscript,
		Participants: participants(debate.SelectedModels, lookup),
	}
	if debate.Status != models.DebateCompleted {
		return view, nil
	}

	view.Mode = ModeReport
	results, err := api.GetDebateResults(ctx, id)
	if err != nil {
		logger.Warn("DebateService: results unavailable for completed debate %s: %v", id, err)
		view.ResultsUnavailable = true
		return view, nil
	}
	CompleteStatistics(debate, results)
	view.Results = results
	return view, nil
}

func participants(selected []models.DebateModel, lookup map[string]models.AIModel) []Participant {
	out := make([]Participant, 0, len(selected))
	for _, m := range selected {
		p := Participant{DebateModel: m, Badge: palette.ForModel(m.ModelID)}
		if m.Provider != "" {
			p.Badge = palette.For(m.Provider)
		}
		if entry, ok := lookup[m.ModelID]; ok {
			entry := entry
			p.Catalogue = &entry
		}
		out = append(out, p)
	}
	return out
}

// Results loads the results document of a completed debate
func (s *DebateService) Results(ctx context.Context, ts polydebate.TokenStore, id string) (*models.DebateResults, error) {
	api := s.API.WithTokens(ts)
	debate, err := api.GetDebate(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := api.GetDebateResults(ctx, id)
	if err != nil {
		return nil, err
	}
	CompleteStatistics(debate, results)
	return results, nil
}

// Start validates and launches a debate
func (s *DebateService) Start(ctx context.Context, ts polydebate.TokenStore, req models.StartDebateRequest) (*models.Debate, error) {
	return s.API.WithTokens(ts).StartDebate(ctx, req)
}

// Control pauses, resumes or stops a debate
func (s *DebateService) Control(ctx context.Context, ts polydebate.TokenStore, id, action string) (*polydebate.DebateControlResult, error) {
	api := s.API.WithTokens(ts)
	switch action {
	case "pause":
		return api.PauseDebate(ctx, id)
	case "resume":
		return api.ResumeDebate(ctx, id)
	case "stop":
		return api.StopDebate(ctx, id)
	}
	return nil, &polydebate.ValidationError{Field: "action", Message: "action must be pause, resume or stop"}
}

// Transcript loads the message log of a debate
func (s *DebateService) Transcript(ctx context.Context, ts polydebate.TokenStore, id string) (*models.DebateTranscript, error) {
	return s.API.WithTokens(ts).GetDebateTranscript(ctx, id)
}

// List returns recent debates, optionally for one market
func (s *DebateService) List(ctx context.Context, marketID string) (*models.DebateList, error) {
	if marketID != "" {
		return s.API.ListMarketDebates(ctx, marketID)
	}
	return s.API.ListDebates(ctx)
}

// CompleteStatistics fills in results.Statistics when the backend omitted it.
// Statistics are derived from each model's final predictions; when there are
// none, Statistics stays nil rather than being zero-filled.
func CompleteStatistics(debate *models.Debate, results *models.DebateResults) {
	if results == nil {
		return
	}
	if results.Statistics != nil {
		if results.Statistics.Source == "" {
			results.Statistics.Source = models.StatisticsFromBackend
		}
		return
	}

	finals := results.FinalPredictions
	if len(finals) == 0 && debate != nil {
		finals = debate.FinalPredictions
	}
	if len(finals) == 0 && debate != nil {
		finals = latestPredictions(debate.Messages)
	}
	if len(finals) == 0 {
		return
	}
	results.Statistics = DeriveStatistics(debate, finals)
}

// latestPredictions picks each model's most recent prediction, preferring
// final-round messages
func latestPredictions(messages []models.DebateMessage) map[string]map[string]int {
	out := make(map[string]map[string]int)
	final := make(map[string]bool)
	for _, m := range messages {
		if len(m.Predictions) == 0 {
			continue
		}
		isFinal := m.MessageType.Normalize() == models.MessageFinal
		if final[m.ModelID] && !isFinal {
			continue
		}
		out[m.ModelID] = m.Predictions
		if isFinal {
			final[m.ModelID] = true
		}
	}
	return out
}

// DeriveStatistics aggregates per-model predictions (model -> outcome -> 0..100)
func DeriveStatistics(debate *models.Debate, finals map[string]map[string]int) *models.DebateStatistics {
	outcomes := outcomeOrder(debate, finals)

	stats := &models.DebateStatistics{Source: models.StatisticsDerived}
	for _, outcome := range outcomes {
		var xs []float64
		for _, preds := range finals {
			if v, ok := preds[outcome]; ok {
				xs = append(xs, float64(v))
			}
		}
		if len(xs) == 0 {
			continue
		}
		sort.Float64s(xs)

		mean := stat.Mean(xs, nil)
		row := models.OutcomeStatistics{
			Outcome:  outcome,
			Mean:     round2(mean),
			Median:   round2(median(xs)),
			Variance: round2(stat.PopVariance(xs, nil)),
			Samples:  len(xs),
		}
		if debate != nil {
			if odds, ok := debate.PolymarketOdds[outcome]; ok {
				row.MarketOdds = odds
				row.Delta = round2(mean - float64(odds))
			}
		}
		stats.Outcomes = append(stats.Outcomes, row)
	}
	return stats
}

// outcomeOrder lists outcomes in market order, then any extra names sorted
func outcomeOrder(debate *models.Debate, finals map[string]map[string]int) []string {
	seen := make(map[string]bool)
	var order []string
	if debate != nil {
		for _, o := range debate.Outcomes {
			if !seen[o.Name] {
				seen[o.Name] = true
				order = append(order, o.Name)
			}
		}
	}
	var extra []string
	for _, preds := range finals {
		for name := range preds {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
