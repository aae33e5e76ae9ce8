package enhance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConcepts(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
		ok    bool
	}{
		{name: "plain array", reply: `["ātman", "jīva"]`, want: []string{"ātman", "jīva"}, ok: true},
		{name: "surrounding whitespace", reply: "\n  [\"dharma\"]  \n", want: []string{"dharma"}, ok: true},
		{name: "fenced with info string", reply: "```json\n[\"dharma\"]\n```", want: []string{"dharma"}, ok: true},
		{name: "fenced without info string", reply: "```\n[\"dharma\"]\n```", want: []string{"dharma"}, ok: true},
		{name: "fenced on one line", reply: "```[\"dharma\"]```", want: []string{"dharma"}, ok: true},
		{name: "empty array", reply: `[]`, want: []string{}, ok: true},
		{name: "not json", reply: "not json", ok: false},
		{name: "object", reply: `{"terms": ["dharma"]}`, ok: false},
		{name: "mixed element types", reply: `["dharma", 1]`, ok: false},
		{name: "null", reply: `null`, ok: false},
		{name: "bare string", reply: `"dharma"`, ok: false},
		{name: "empty reply", reply: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseConcepts(tt.reply)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestConceptPrompt_EmbedsQuery(t *testing.T) {
	assert.Contains(t, conceptPrompt, "Query: \"%s\"")
	assert.Contains(t, conceptPrompt, "JSON array of up to 5")
}
