package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantOK  bool
	}{
		{
			name:    "plain json",
			content: `{"agents": ["task", "summary"]}`,
			want:    []string{"task", "summary"},
			wantOK:  true,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"agents\": [\"habit\"]}\n```",
			want:    []string{"habit"},
			wantOK:  true,
		},
		{
			name:    "fence without language tag",
			content: "```\n{\"agents\": []}\n```",
			want:    []string{},
			wantOK:  true,
		},
		{
			name:    "empty content means nothing to delegate",
			content: "",
			want:    nil,
			wantOK:  true,
		},
		{
			name:    "json embedded in prose",
			content: `Sure! Here is my plan: {"agents": ["finance"]}`,
			want:    []string{"finance"},
			wantOK:  true,
		},
		{
			name:    "prose only",
			content: "I will create that task for you right away.",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, ok := parseIntent(tt.content)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, intent.Agents)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1}  `))
	assert.Equal(t, "", stripCodeFence(""))
}

func TestHistoryMessages(t *testing.T) {
	msgs := historyMessages([]ChatTurn{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "   "},
		{Role: "weird", Content: "what"},
	})
	assert.Len(t, msgs, 3)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "what", msgs[2].Content)
}
