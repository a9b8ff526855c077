package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", "Here is the result:\n{\"a\": 1}", `{"a": 1}`},
		{"trailing prose", "{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no json", "no json here", "no json here"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}

func TestExtractText(t *testing.T) {
	assert.Empty(t, extractText(nil))

	resp := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "first"},
		{Type: "text", Text: ""},
		{Type: "text", Text: "second"},
	}}
	assert.Equal(t, "first\nsecond", extractText(resp))
}
