package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTranscript(t *testing.T) {
	valid := strings.Repeat("this is a perfectly normal transcript sentence ", 10)

	tests := []struct {
		name       string
		text       string
		wantReason ValidationReason
	}{
		{
			name:       "空文字列",
			text:       "",
			wantReason: ReasonEmpty,
		},
		{
			name:       "空白のみ",
			text:       "   \n\t  ",
			wantReason: ReasonEmpty,
		},
		{
			name:       "文字数不足",
			text:       "too short to summarize",
			wantReason: ReasonTooShort,
		},
		{
			name:       "単語数不足",
			text:       strings.Repeat("aaaaaaaaaa", 15),
			wantReason: ReasonTooFewWords,
		},
		{
			name:       "記号主体の低品質テキスト",
			text:       strings.Repeat("♪♪♪♪ ", 30),
			wantReason: ReasonLowQuality,
		},
		{
			name: "正常な文字起こし",
			text: valid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := validateTranscript(tt.text, DefaultMinTranscriptChars)
			if tt.wantReason == "" {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.wantReason, verr.Reason)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestValidateTranscript_CustomMinChars(t *testing.T) {
	text := "ten words are not enough here but chars are fine okay yes truly enough words to pass the word gate"

	// デフォルトの100文字を下回っていても、閾値を下げれば通る
	require.Less(t, len(text), 100)
	assert.Nil(t, validateTranscript(text, 50))

	verr := validateTranscript(text, 500)
	require.NotNil(t, verr)
	assert.Equal(t, ReasonTooShort, verr.Reason)
}

func TestValidateTranscript_MinCharsFallback(t *testing.T) {
	// 0以下の閾値はデフォルト値にフォールバックする
	verr := validateTranscript("short", 0)
	require.NotNil(t, verr)
	assert.Equal(t, ReasonTooShort, verr.Reason)
	assert.Contains(t, verr.Detail, "100")
}

func TestAlnumRatio(t *testing.T) {
	assert.InDelta(t, 1.0, alnumRatio("abc123"), 0.001)
	assert.InDelta(t, 0.0, alnumRatio("♪♪♪"), 0.001)
	// "ab cd" = 英数字4 / 全体5
	assert.InDelta(t, 0.8, alnumRatio("ab cd"), 0.001)
	assert.InDelta(t, 0.0, alnumRatio(""), 0.001)
}
