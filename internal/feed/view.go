package feed

import (
	"github.com/polydebate/frontend/internal/models"
	"github.com/shopspring/decimal"
)

// OutcomeView is an outcome formatted for display
type OutcomeView struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Percent int64   `json:"percent"`
}

// MarketView is a display-ready market card
type MarketView struct {
	ID             string        `json:"id"`
	Question       string        `json:"question"`
	Category       string        `json:"category"`
	ImageURL       string        `json:"image_url,omitempty"`
	Outcomes       []OutcomeView `json:"outcomes"`
	Volume         string        `json:"volume"`
	Volume24h      string        `json:"volume_24h,omitempty"`
	PriceChange24h *float64      `json:"price_change_24h,omitempty"`
	ChangeLabel    string        `json:"change_label,omitempty"`
	Sparkline      []float64     `json:"sparkline,omitempty"`
	EndDate        *string       `json:"end_date,omitempty"`
	New            bool          `json:"is_new"`
	Favorite       bool          `json:"is_favorite"`
}

// Percent renders an implied probability in [0,1] as a whole percentage,
// rounding half away from zero.
func Percent(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatVolume renders a raw volume as 1.2M, 3.4K or 512
func FormatVolume(volume float64) string {
	v := decimal.NewFromFloat(volume)
	switch {
	case v.GreaterThanOrEqual(million):
		return v.Div(million).StringFixed(1) + "M"
	case v.GreaterThanOrEqual(thousand):
		return v.Div(thousand).StringFixed(1) + "K"
	default:
		return v.StringFixed(0)
	}
}

// FormatChange renders a 24h price change in percentage points, e.g. +5.0%
func FormatChange(change float64) string {
	d := decimal.NewFromFloat(change).Round(1)
	if d.IsPositive() {
		return "+" + d.StringFixed(1) + "%"
	}
	return d.StringFixed(1) + "%"
}

// NewMarketView formats a market. Prices are taken as served, never recomputed.
func NewMarketView(m models.Market, isNew bool) MarketView {
	outcomes := make([]OutcomeView, len(m.Outcomes))
	for i, o := range m.Outcomes {
		outcomes[i] = OutcomeView{Name: o.Name, Price: o.Price, Percent: Percent(o.Price)}
	}

	volume := m.Volume
	if volume == "" {
		volume = FormatVolume(m.VolumeRaw)
	}

	v := MarketView{
		ID:             m.ID,
		Question:       m.Question,
		Category:       m.Category,
		ImageURL:       m.ImageURL,
		Outcomes:       outcomes,
		Volume:         volume,
		Volume24h:      m.Volume24h,
		PriceChange24h: m.PriceChange24h,
		Sparkline:      m.Sparkline,
		EndDate:        m.EndDate,
		New:            isNew,
	}
	if m.PriceChange24h != nil {
		v.ChangeLabel = FormatChange(*m.PriceChange24h)
	}
	return v
}

// Views formats accumulated items, marking those in favorites
func Views(items []Item, favorites map[string]struct{}) []MarketView {
	out := make([]MarketView, len(items))
	for i, it := range items {
		out[i] = NewMarketView(it.Market, it.New)
		_, out[i].Favorite = favorites[it.Market.ID]
	}
	return out
}
