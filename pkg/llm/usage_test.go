package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageMerge_AddsNumericCounters(t *testing.T) {
	total := Usage{}
	total.Merge(map[string]any{"input_tokens": 100, "output_tokens": 40})
	total.Merge(map[string]any{"input_tokens": 50, "output_tokens": 10, "total_tokens": 60})

	assert.Equal(t, float64(150), total["input_tokens"])
	assert.Equal(t, float64(50), total["output_tokens"])
	assert.Equal(t, float64(60), total["total_tokens"])
}

func TestUsageMerge_RecursesIntoNestedMaps(t *testing.T) {
	total := Usage{}
	total.Merge(map[string]any{
		"prompt_tokens_details": map[string]any{"cached_tokens": 10},
	})
	total.Merge(map[string]any{
		"prompt_tokens_details": map[string]any{"cached_tokens": 5, "audio_tokens": 2},
	})

	nested, ok := total["prompt_tokens_details"].(Usage)
	assert.True(t, ok)
	assert.Equal(t, float64(15), nested["cached_tokens"])
	assert.Equal(t, float64(2), nested["audio_tokens"])
}

func TestUsageMerge_KeepsFirstNonNumericScalar(t *testing.T) {
	total := Usage{}
	total.Merge(map[string]any{"model": "gpt-4o"})
	total.Merge(map[string]any{"model": "other-model"})

	assert.Equal(t, "gpt-4o", total["model"])
}

func TestUsageMerge_ToleratesMissingKeys(t *testing.T) {
	total := Usage{}
	total.Merge(map[string]any{"input_tokens": 7})
	total.Merge(map[string]any{})
	total.Merge(nil)

	assert.Equal(t, float64(7), total["input_tokens"])
}
