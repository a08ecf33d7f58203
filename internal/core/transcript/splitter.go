package transcript

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// minSentences はフォールバックを試す閾値
	// この件数以下しか文が取れない場合、より粗い分割方法を試す
	minSentences = 5

	// minFragmentLength は文として採用する最小文字数
	// 字幕由来の文字起こしでは短い断片が大量に混入するため除外する
	minFragmentLength = 5

	// forcedSplitTarget は強制分割時の目標文字数
	forcedSplitTarget = 800

	// forcedSplitSearchRatio は強制分割時に境界を後方検索する幅の比率
	forcedSplitSearchRatio = 0.2
)

var (
	// sentenceBoundaryRe は句読点ベースの文境界
	// 終端記号の連続（省略記号を含む）+ 任意の閉じ引用符 + 空白または末尾
	sentenceBoundaryRe = regexp.MustCompile(`[.!?…]+["'”’)]?(\s+|$)`)

	// simpleBoundaryRe はフォールバック用の単純な文境界
	simpleBoundaryRe = regexp.MustCompile(`[.!?]\s+`)
)

// SentenceSplitter は文字起こしテキストを文単位の列に分割する
// 句読点が欠落した字幕由来のテキストにも段階的なフォールバックで対応する
type SentenceSplitter struct {
	logger *slog.Logger
}

// SplitterOption は SentenceSplitter 構築時のオプション
type SplitterOption func(*SentenceSplitter)

// WithSplitterLogger はロガーを差し替える
func WithSplitterLogger(logger *slog.Logger) SplitterOption {
	return func(s *SentenceSplitter) {
		s.logger = logger
	}
}

// NewSentenceSplitter は新しいSentenceSplitterを作成する
func NewSentenceSplitter(opts ...SplitterOption) *SentenceSplitter {
	s := &SentenceSplitter{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split はテキストを文の列に分割する
// 空や不正な入力でもエラーにせず、常に元の順序を保った列を返す
func (s *SentenceSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Tier 1: 句読点ベースの境界検出
	sentences := splitAtBoundaries(text, sentenceBoundaryRe)
	tier := "punctuation"

	// Tier 2: 件数が少なすぎる場合、単純な終端記号+空白の分割を試す
	if len(sentences) <= minSentences && len(text) > forcedSplitTarget {
		if alt := splitAtBoundaries(text, simpleBoundaryRe); len(alt) > len(sentences) {
			sentences = alt
			tier = "simple"
		}
	}

	// Tier 3: 改行分割（字幕由来テキストは改行区切りが多い）
	if len(sentences) <= minSentences {
		if alt := filterFragments(strings.Split(text, "\n")); len(alt) > len(sentences) {
			sentences = alt
			tier = "linebreak"
		}
	}

	// Tier 4: 境界を探しつつ固定長で強制分割
	if len(sentences) <= minSentences && len(text) > forcedSplitTarget {
		if alt := forceSplit(text, forcedSplitTarget); len(alt) > len(sentences) {
			sentences = alt
			tier = "forced"
		}
	}

	s.logger.Debug("文分割が完了",
		"tier", tier,
		"sentences", len(sentences),
		"chars", len(text),
	)

	return sentences
}

// SplitIndexed は分割結果に元の位置インデックスを付与して返す
func (s *SentenceSplitter) SplitIndexed(text string) []Sentence {
	parts := s.Split(text)
	sentences := make([]Sentence, len(parts))
	for i, p := range parts {
		sentences[i] = Sentence{Index: i, Text: p}
	}
	return sentences
}

// splitAtBoundaries は境界正規表現のマッチ終端でテキストを区切る
func splitAtBoundaries(text string, re *regexp.Regexp) []string {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return filterFragments([]string{text})
	}

	var parts []string
	prev := 0
	for _, m := range matches {
		parts = append(parts, text[prev:m[1]])
		prev = m[1]
	}
	if prev < len(text) {
		parts = append(parts, text[prev:])
	}

	return filterFragments(parts)
}

// forceSplit は目標文字数ごとにテキストを切る
// 単語の途中で切らないよう、目標幅の20%まで後方に文末・空白境界を探す
func forceSplit(text string, target int) []string {
	searchWidth := int(float64(target) * forcedSplitSearchRatio)

	var parts []string
	for len(text) > target {
		cut := target

		// 文末記号を優先して後方検索
		boundary := -1
		for i := cut; i > cut-searchWidth && i > 0; i-- {
			c := text[i-1]
			if c == '.' || c == '!' || c == '?' {
				boundary = i
				break
			}
		}
		// 見つからなければ空白で妥協する
		if boundary < 0 {
			for i := cut; i > cut-searchWidth && i > 0; i-- {
				if unicode.IsSpace(rune(text[i-1])) {
					boundary = i
					break
				}
			}
		}
		if boundary > 0 {
			cut = boundary
		}
		// マルチバイト文字の途中で切らない
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}

		parts = append(parts, text[:cut])
		text = text[cut:]
	}
	if len(text) > 0 {
		parts = append(parts, text)
	}

	return filterFragments(parts)
}

// filterFragments は空白を除去し、短すぎる断片を捨てる
func filterFragments(parts []string) []string {
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) < minFragmentLength {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}
