package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/polydebate/frontend/internal/feed"
	"github.com/polydebate/frontend/internal/models"
	"github.com/polydebate/frontend/internal/palette"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
)

var (
	dim     = color.New(color.Faint).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintfFunc()
	red     = color.New(color.FgRed).SprintfFunc()
	warning = color.New(color.FgYellow).SprintfFunc()
)

// describe turns an error into the line shown to the user
func describe(err error) string {
	var (
		apiErr *polydebate.APIError
		valErr *polydebate.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.Is(err, polydebate.ErrNoToken):
		return "not signed in (run `polydebate login`)"
	case polydebate.IsUnreachable(err):
		return "cannot reach the PolyDebate backend, try again shortly"
	case polydebate.IsUnauthorized(err):
		return "session expired, sign in again (run `polydebate login`)"
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}

// hueColor maps a badge hue onto the nearest basic terminal colour
func hueColor(hue int) *color.Color {
	switch ((hue % 360) + 360) % 360 / 60 {
	case 0:
		return color.New(color.FgRed)
	case 1:
		return color.New(color.FgYellow)
	case 2:
		return color.New(color.FgGreen)
	case 3:
		return color.New(color.FgCyan)
	case 4:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgMagenta)
	}
}

func badge(style palette.Style, text string) string {
	return hueColor(style.Hue).Sprint(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newTable(w io.Writer, alignments ...tw.Align) *tablewriter.Table {
	tableConfig := tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
		},
	})
	return tablewriter.NewTable(w, tableConfig, tablewriter.WithAlignment(alignments))
}

func leading(outcomes []feed.OutcomeView) string {
	if len(outcomes) == 0 {
		return "-"
	}
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.Price > best.Price {
			best = o
		}
	}
	return fmt.Sprintf("%s %d%%", best.Name, best.Percent)
}

func changeCell(v feed.MarketView) string {
	if v.ChangeLabel == "" {
		return "-"
	}
	if v.PriceChange24h != nil && *v.PriceChange24h < 0 {
		return red("%s", v.ChangeLabel)
	}
	return green("%s", v.ChangeLabel)
}

func renderMarkets(w io.Writer, views []feed.MarketView) {
	if len(views) == 0 {
		fmt.Fprintln(w, dim("No markets found."))
		return
	}
	table := newTable(w, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft)
	table.Header("ID", "Question", "Leading", "Volume", "24h", "")
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		var marks []string
		if v.New {
			marks = append(marks, "new")
		}
		if v.Favorite {
			marks = append(marks, "★")
		}
		rows = append(rows, []string{
			v.ID,
			truncate(v.Question, 60),
			leading(v.Outcomes),
			v.Volume,
			changeCell(v),
			strings.Join(marks, " "),
		})
	}
	_ = table.Bulk(rows)
	_ = table.Render()
}

func renderModels(w io.Writer, catalogue *models.ModelCatalogue) {
	table := newTable(w, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignLeft)
	table.Header("Model", "Name", "Provider", "Context", "Tier")
	rows := make([][]string, 0, len(catalogue.Models))
	for _, m := range catalogue.Models {
		style := palette.ForModel(m.ID)
		if m.Provider != "" {
			style = palette.For(m.Provider)
		}
		tier := "paid"
		if m.IsFree {
			tier = "free"
		}
		rows = append(rows, []string{m.ID, m.Name, badge(style, style.Label), fmt.Sprint(m.ContextLength), tier})
	}
	_ = table.Bulk(rows)
	_ = table.Render()
	fmt.Fprintf(w, "%d models (%d free, %d paid)\n", catalogue.TotalCount, catalogue.FreeCount, catalogue.PaidCount)
}

func renderMessage(w io.Writer, m models.DebateMessage) {
	style := palette.ForModel(m.ModelID)
	name := m.ModelName
	if name == "" {
		name = m.ModelID
	}
	fmt.Fprintf(w, "%s %s %s\n", dim(fmt.Sprintf("[round %d]", m.Round)), badge(style, bold(name)), dim(string(m.MessageType.Normalize())))
	fmt.Fprintln(w, m.Text)
	if len(m.Predictions) > 0 {
		parts := make([]string, 0, len(m.Predictions))
		for outcome, p := range m.Predictions {
			parts = append(parts, fmt.Sprintf("%s %d%%", outcome, p))
		}
		fmt.Fprintln(w, dim("predictions: "+strings.Join(parts, ", ")))
	}
	fmt.Fprintln(w)
}

func renderDebate(w io.Writer, view *services.DebateView) {
	d := view.Debate
	fmt.Fprintf(w, "%s\n%s  status %s  round %d/%d\n\n", bold(d.MarketQuestion), dim(d.DebateID), d.Status, d.CurrentRound, d.Rounds)

	names := make([]string, 0, len(view.Participants))
	for _, p := range view.Participants {
		names = append(names, badge(p.Badge, p.ModelName))
	}
	fmt.Fprintln(w, "Models: "+strings.Join(names, ", "))
	fmt.Fprintln(w)

	if view.Mode == services.ModeTranscript {
		for _, m := range d.Messages {
			renderMessage(w, m)
		}
		return
	}

	if view.ResultsUnavailable {
		fmt.Fprintln(w, warning("Results are not available right now; showing the transcript."))
		fmt.Fprintln(w)
		for _, m := range d.Messages {
			renderMessage(w, m)
		}
		return
	}
	renderReport(w, view.Results)
}

func renderReport(w io.Writer, results *models.DebateResults) {
	if s := results.Summary; s != nil {
		fmt.Fprintln(w, bold("Summary"))
		fmt.Fprintln(w, s.Overall)
		if s.Consensus != "" {
			fmt.Fprintln(w, dim("Consensus: ")+s.Consensus)
		}
		for _, d := range s.Disagreements {
			fmt.Fprintln(w, "  - "+d)
		}
		fmt.Fprintln(w)
	}

	stats := results.Statistics
	if stats == nil || len(stats.Outcomes) == 0 {
		fmt.Fprintln(w, dim("No prediction statistics for this debate."))
		return
	}
	table := newTable(w, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight)
	table.Header("Outcome", "AI mean", "Median", "Variance", "Market", "Delta")
	rows := make([][]string, 0, len(stats.Outcomes))
	for _, o := range stats.Outcomes {
		delta := fmt.Sprintf("%+.1f", o.Delta)
		if o.Delta < 0 {
			delta = red("%s", delta)
		} else if o.Delta > 0 {
			delta = green("%s", delta)
		}
		rows = append(rows, []string{
			o.Outcome,
			fmt.Sprintf("%.1f%%", o.Mean),
			fmt.Sprintf("%.1f%%", o.Median),
			fmt.Sprintf("%.2f", o.Variance),
			fmt.Sprintf("%d%%", o.MarketOdds),
			delta,
		})
	}
	_ = table.Bulk(rows)
	_ = table.Render()
	if stats.Source == models.StatisticsDerived {
		fmt.Fprintln(w, dim("Statistics derived from the models' final predictions."))
	}
}

// streamPayload covers the fields of every live debate event
type streamPayload struct {
	models.DebateMessage
	DebateID      string `json:"debate_id"`
	Status        string `json:"status"`
	TotalMessages int    `json:"total_messages"`
	Error         string `json:"error"`
}

// renderEvent prints one live event and reports whether the debate has ended
func renderEvent(w io.Writer, ev polydebate.Event) bool {
	var p streamPayload
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			fmt.Fprintln(w, dim(string(ev.Data)))
			return false
		}
	}

	switch ev.Name {
	case models.EventDebateStarted:
		fmt.Fprintln(w, green("Debate started"))
	case models.EventModelThinking:
		name := p.ModelName
		if name == "" {
			name = p.ModelID
		}
		fmt.Fprintln(w, dim(fmt.Sprintf("%s is thinking (round %d)...", name, p.Round)))
	case models.EventError:
		who := p.ModelName
		if who != "" {
			who += ": "
		}
		fmt.Fprintln(w, red("%s%s", who, p.Error))
	case models.EventDebateComplete:
		fmt.Fprintln(w, green("Debate complete, %d messages", p.TotalMessages))
		return true
	default:
		renderMessage(w, p.DebateMessage)
	}
	return false
}
