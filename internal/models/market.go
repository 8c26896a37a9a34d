/**
 * @description
 * Market transport objects as served by the PolyDebate backend.
 * The client mirrors these for display and never recomputes prices.
 *
 * @dependencies
 * - standard "encoding/json"
 */

package models

import (
	"encoding/json"
)

// Outcome is one possible resolution of a market
type Outcome struct {
	Name   string  `json:"name"`
	Slug   string  `json:"slug,omitempty"`
	Price  float64 `json:"price"` // implied probability in [0,1]
	Shares string  `json:"shares,omitempty"`
}

// Market is a tradable prediction-market question
type Market struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category"`
	TagID            FlexID    `json:"tag_id,omitempty"`
	MarketType       string    `json:"market_type,omitempty"`
	Outcomes         []Outcome `json:"outcomes"`
	Volume           string    `json:"volume"`
	VolumeRaw        float64   `json:"volume_raw,omitempty"`
	Volume24h        string    `json:"volume_24h,omitempty"`
	Liquidity        string    `json:"liquidity,omitempty"`
	PriceChange24h   *float64  `json:"price_change_24h,omitempty"`
	Sparkline        []float64 `json:"sparkline,omitempty"`
	EndDate          *string   `json:"end_date,omitempty"`
	CreatedDate      *string   `json:"created_date,omitempty"`
	ResolutionSource string    `json:"resolution_source,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
}

// MarketPage is one page of the paginated market list endpoint
type MarketPage struct {
	Markets []Market `json:"markets"`
	Total   int      `json:"total"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
	HasMore bool     `json:"has_more"`
}

// Category is a market tag exposed as a browsing category
type Category struct {
	ID          FlexID `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	MarketCount int    `json:"market_count"`
	IconURL     string `json:"icon_url,omitempty"`
}

// CategoryList wraps GET /api/categories
type CategoryList struct {
	Categories []Category `json:"categories"`
}

// FlexID accepts identifiers the backend sends either as strings or numbers
type FlexID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// tags are sometimes sent as objects; keep the raw text rather than failing the page
		*f = FlexID(data)
		return nil
	}
	*f = FlexID(n.String())
	return nil
}

// String returns the identifier as text
func (f FlexID) String() string {
	return string(f)
}
