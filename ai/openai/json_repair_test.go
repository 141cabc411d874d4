package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean object", `{"topics":[]}`, `{"topics":[]}`},
		{"code fence", "```json\n{\"topics\":[]}\n```", `{"topics":[]}`},
		{"bare fence", "```\n{\"topics\":[]}\n```", `{"topics":[]}`},
		{"surrounding prose", `Here you go: {"topics":[]} hope that helps`, `{"topics":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	t.Run("missing opening quote on key", func(t *testing.T) {
		broken := `{"topics": [], entities": []}`
		repaired := repairJSON(broken)

		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(repaired), &out))
		assert.Contains(t, out, "entities")
	})

	t.Run("valid json untouched", func(t *testing.T) {
		valid := `{"topics": ["food"], "entities": ["La Taqueria"]}`
		assert.Equal(t, valid, repairJSON(valid))
	})
}

func TestNormalizeLabels(t *testing.T) {
	got := normalizeLabels([]string{" Food ", "food", "FOOD", "transit", ""})
	assert.Equal(t, []string{"food", "transit"}, got)
}
