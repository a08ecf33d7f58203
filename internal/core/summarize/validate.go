package summarize

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultMinTranscriptChars は文字起こしとして受理する最小文字数
	DefaultMinTranscriptChars = 100

	// minTranscriptWords は受理する最小単語数
	minTranscriptWords = 20

	// minAlnumRatio は受理する英数字比率の下限
	// これを下回る文字起こしは記号・ノイズ主体の「ゴミ」とみなす
	minAlnumRatio = 0.5
)

// ValidationReason は検証失敗の理由
type ValidationReason string

const (
	// ReasonEmpty は文字起こしが空
	ReasonEmpty ValidationReason = "empty"
	// ReasonTooShort は文字数不足
	ReasonTooShort ValidationReason = "too_short"
	// ReasonTooFewWords は単語数不足
	ReasonTooFewWords ValidationReason = "too_few_words"
	// ReasonLowQuality は英数字比率が低すぎる
	ReasonLowQuality ValidationReason = "low_quality"
)

// ValidationError は文字起こしが要約に使えないことを表す
// リトライ不能な致命的エラーとして扱う
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

// Error はエラーメッセージを返す
func (e *ValidationError) Error() string {
	return fmt.Sprintf("文字起こしが不正 (%s): %s", e.Reason, e.Detail)
}

// validateTranscript は文字起こしが要約に値するかを検証する
func validateTranscript(text string, minChars int) *ValidationError {
	if minChars <= 0 {
		minChars = DefaultMinTranscriptChars
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{
			Reason: ReasonEmpty,
			Detail: "文字起こしが空です",
		}
	}

	if len(trimmed) < minChars {
		return &ValidationError{
			Reason: ReasonTooShort,
			Detail: fmt.Sprintf("文字数が不足しています (%d < %d)", len(trimmed), minChars),
		}
	}

	words := len(strings.Fields(trimmed))
	if words < minTranscriptWords {
		return &ValidationError{
			Reason: ReasonTooFewWords,
			Detail: fmt.Sprintf("単語数が不足しています (%d < %d)", words, minTranscriptWords),
		}
	}

	if ratio := alnumRatio(trimmed); ratio < minAlnumRatio {
		return &ValidationError{
			Reason: ReasonLowQuality,
			Detail: fmt.Sprintf("低品質な文字起こしです (英数字比率 %.2f)", ratio),
		}
	}

	return nil
}

// alnumRatio はテキスト全体に占める英数字（文字・数字）の比率を返す
func alnumRatio(text string) float64 {
	var total, alnum int
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alnum) / float64(total)
}
