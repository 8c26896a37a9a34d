/**
 * @description
 * Badge styling for AI models. Known providers map to fixed style tokens;
 * anything else gets a hue derived from an FNV-1a hash of its identifier, so
 * the same provider always renders the same colour.
 */

package palette

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Style is a set of display tokens for one provider
type Style struct {
	Provider string `json:"provider"`
	Label    string `json:"label"`
	Hue      int    `json:"hue"` // 0-359
	Gradient string `json:"gradient"`
	Known    bool   `json:"known"`
}

var known = map[string]Style{
	"openai":     {Label: "OpenAI", Hue: 160},
	"anthropic":  {Label: "Anthropic", Hue: 25},
	"google":     {Label: "Google", Hue: 217},
	"meta-llama": {Label: "Meta", Hue: 210},
	"mistralai":  {Label: "Mistral", Hue: 35},
	"deepseek":   {Label: "DeepSeek", Hue: 230},
	"x-ai":       {Label: "xAI", Hue: 0},
	"qwen":       {Label: "Qwen", Hue: 265},
	"cohere":     {Label: "Cohere", Hue: 340},
	"perplexity": {Label: "Perplexity", Hue: 185},
	"microsoft":  {Label: "Microsoft", Hue: 200},
	"nvidia":     {Label: "NVIDIA", Hue: 85},
	"amazon":     {Label: "Amazon", Hue: 30},
}

// Provider extracts the provider part of a model id ("openai/gpt-4o" -> "openai")
func Provider(modelID string) string {
	id := strings.ToLower(strings.TrimSpace(modelID))
	if i := strings.IndexByte(id, '/'); i >= 0 {
		return id[:i]
	}
	return id
}

// For returns the style of a provider identifier
func For(provider string) Style {
	p := strings.ToLower(strings.TrimSpace(provider))
	if s, ok := known[p]; ok {
		s.Provider = p
		s.Known = true
		s.Gradient = gradient(s.Hue)
		return s
	}
	hue := HashHue(p)
	return Style{
		Provider: p,
		Label:    p,
		Hue:      hue,
		Gradient: gradient(hue),
	}
}

// ForModel returns the style of the provider behind a model id
func ForModel(modelID string) Style {
	return For(Provider(modelID))
}

// HashHue derives a stable hue from an identifier
func HashHue(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % 360)
}

// Known reports whether provider has a fixed style
func Known(provider string) bool {
	_, ok := known[strings.ToLower(strings.TrimSpace(provider))]
	return ok
}

func gradient(hue int) string {
	return fmt.Sprintf("linear-gradient(135deg, hsl(%d 70%% 45%%), hsl(%d 70%% 35%%))", hue, (hue+30)%360)
}
