package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownProvidersUseFixedStyles(t *testing.T) {
	s := ForModel("anthropic/claude-3.5-sonnet")
	assert.True(t, s.Known)
	assert.Equal(t, "Anthropic", s.Label)
	assert.Equal(t, 25, s.Hue)

	assert.Equal(t, For("OpenAI"), For("openai"))
}

func TestUnknownProviderHueIsDeterministic(t *testing.T) {
	a := For("some-new-lab")
	b := ForModel("some-new-lab/model-x")

	assert.False(t, a.Known)
	assert.Equal(t, a, b)
	assert.Equal(t, HashHue("some-new-lab"), a.Hue)
	assert.GreaterOrEqual(t, a.Hue, 0)
	assert.Less(t, a.Hue, 360)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Hue, For("some-new-lab").Hue)
	}
}

func TestProviderParsing(t *testing.T) {
	assert.Equal(t, "meta-llama", Provider("meta-llama/llama-3-70b"))
	assert.Equal(t, "gpt-4", Provider("GPT-4"))
	assert.True(t, Known("x-ai"))
	assert.False(t, Known("nobody"))
}
