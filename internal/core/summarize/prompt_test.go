package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMapPrompt(t *testing.T) {
	prompt := buildMapPrompt("chunk body text here", 1, 5)

	assert.Contains(t, prompt, "part 2 of 5")
	assert.Contains(t, prompt, "chunk body text here")
	assert.Contains(t, prompt, "## Summary")
}

func TestBuildReducePrompt(t *testing.T) {
	summaries := []string{"first part summary", "second part summary", "third part summary"}
	prompt := buildReducePrompt(summaries)

	assert.Contains(t, prompt, "[Beginning]")
	assert.Contains(t, prompt, "[50% through]")
	assert.Contains(t, prompt, "[End]")
	assert.Contains(t, prompt, "## Combined summary")

	// 要約は時系列順に並ぶ
	first := strings.Index(prompt, "first part summary")
	second := strings.Index(prompt, "second part summary")
	third := strings.Index(prompt, "third part summary")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestPositionLabel(t *testing.T) {
	tests := []struct {
		name  string
		index int
		total int
		want  string
	}{
		{name: "先頭", index: 0, total: 5, want: "Beginning"},
		{name: "末尾", index: 4, total: 5, want: "End"},
		{name: "25パーセント", index: 1, total: 5, want: "25% through"},
		{name: "50パーセント", index: 2, total: 5, want: "50% through"},
		{name: "75パーセント", index: 3, total: 5, want: "75% through"},
		{name: "3分割の中間", index: 1, total: 3, want: "50% through"},
		{name: "1件のみ", index: 0, total: 1, want: "Beginning"},
		{name: "2件の末尾", index: 1, total: 2, want: "End"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, positionLabel(tt.index, tt.total))
		})
	}
}
