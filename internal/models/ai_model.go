package models

// ModelPricing is the per-token price of an AI model in USD
type ModelPricing struct {
	Input           float64 `json:"input"`
	Output          float64 `json:"output"`
	TotalPerMillion float64 `json:"total_per_million"`
}

// AIModel is a debate participant candidate from the model catalogue
type AIModel struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Provider        string       `json:"provider"`
	Description     string       `json:"description,omitempty"`
	Pricing         ModelPricing `json:"pricing"`
	IsFree          bool         `json:"is_free"`
	ContextLength   int          `json:"context_length"`
	MaxOutputTokens int          `json:"max_output_tokens"`
	Supported       bool         `json:"supported"`
}

// ModelCatalogue wraps GET /api/models
type ModelCatalogue struct {
	Models     []AIModel `json:"models"`
	TotalCount int       `json:"total_count"`
	FreeCount  int       `json:"free_count"`
	PaidCount  int       `json:"paid_count"`
}

// Lookup indexes the catalogue by model id
func (c *ModelCatalogue) Lookup() map[string]AIModel {
	out := make(map[string]AIModel, len(c.Models))
	for _, m := range c.Models {
		out[m.ID] = m
	}
	return out
}
