package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "空文字列", text: "", want: 0},
		{name: "4文字ちょうど", text: "abcd", want: 1},
		{name: "5文字は切り上げ", text: "abcde", want: 2},
		{name: "8文字", text: "abcdefgh", want: 2},
		{name: "400文字", text: strings.Repeat("a", 400), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimatorCounter(t *testing.T) {
	var counter TokenCounter = EstimatorCounter{}

	assert.Equal(t, EstimateTokens("hello world"), counter.CountTokens("hello world"))
	assert.Equal(t, 0, counter.CountTokens(""))
}
