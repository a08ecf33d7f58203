package chunking

import (
	"math"
	"sort"
	"strings"

	"github.com/jinford/transcript-digest/internal/core/transcript"
)

const (
	// smallTranscriptTokens はサンプリング不要とみなす推定トークン数の上限
	smallTranscriptTokens = 3000

	// smallChunkTargetTokens は小規模文字起こし用の小さめの目標チャンクサイズ
	// Map段階の並列化を意味のあるものにするため細かく割る
	smallChunkTargetTokens = 800

	// boundaryZoneRatio は常に保持する冒頭・末尾ゾーンの比率
	boundaryZoneRatio = 0.15

	// maxKeepFraction は重要文として保持する最大比率
	maxKeepFraction = 0.8

	// leadInSentences は重要領域の前に付ける文脈文数
	leadInSentences = 3

	// trailingSentences は重要領域の後に付ける文脈文数
	trailingSentences = 2
)

// importanceKeywords は重要度スコアに加点するキーワード
// 結論・要点を示唆する語を対象とする
var importanceKeywords = []string{
	"summary", "summarize", "conclusion", "conclude", "therefore",
	"key", "critical", "important", "essential", "significant",
	"main", "fundamental", "takeaway", "remember", "crucial",
}

// scoredSentence は重要度スコア付きの文
type scoredSentence struct {
	transcript.Sentence
	Score float64
}

// packSmall は小規模な文字起こしを小さめの目標チャンクサイズで強制分割する
// Map段階の並列化が意味を持つよう、文数に応じて最低チャンク数を強制する
func (s *Strategy) packSmall(sentences []transcript.Sentence) []string {
	minChunks := 1
	switch {
	case len(sentences) > singleChunkThreshold:
		minChunks = 3
	case len(sentences) > 5:
		minChunks = 2
	}
	return s.packer.Pack(sentences, smallChunkTargetTokens, minChunks)
}

// chunkIntelligent は重要度スコアに基づくサンプリングでチャンク化する
func (s *Strategy) chunkIntelligent(sentences []transcript.Sentence, totalTokens int, reduction float64) []string {
	n := len(sentences)

	// 小規模な文字起こしはサンプリングせず、小さめのチャンクで強制分割する
	if totalTokens <= smallTranscriptTokens {
		return s.packSmall(sentences)
	}

	// 全文をスコアリング
	scored := make([]scoredSentence, n)
	for i, sent := range sentences {
		scored[i] = scoredSentence{
			Sentence: sent,
			Score:    scoreSentence(sent.Text, i, n),
		}
	}

	// スコア降順で上位一定割合を残す閾値を求める
	keepFraction := math.Min(maxKeepFraction, 2.0/reduction)
	cutoff := int(float64(n) * keepFraction)
	if cutoff < 1 {
		cutoff = 1
	}
	if cutoff >= n {
		cutoff = n - 1
	}

	byScore := make([]scoredSentence, n)
	copy(byScore, scored)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].Score > byScore[j].Score
	})
	threshold := byScore[cutoff].Score

	s.logger.Debug("重要度閾値を決定",
		"keepFraction", keepFraction,
		"cutoff", cutoff,
		"threshold", threshold,
	)

	segments := buildSegments(scored, threshold)

	// 退化ケース: セグメントが作れなかった場合は上位N文を時系列順で採用する
	if len(segments) == 0 {
		top := byScore[:cutoff]
		flat := make([]transcript.Sentence, len(top))
		for i, sc := range top {
			flat[i] = sc.Sentence
		}
		sort.Slice(flat, func(i, j int) bool {
			return flat[i].Index < flat[j].Index
		})
		s.logger.Debug("セグメントなし、上位スコア文にフォールバック", "sentences", len(flat))
		return s.packer.Pack(flat, s.targetTokens, 3)
	}

	// セグメントを時系列のまま平坦化して詰め込む
	var flat []transcript.Sentence
	for _, seg := range segments {
		flat = append(flat, seg...)
	}

	s.logger.Debug("重要度サンプリングを実行",
		"segments", len(segments),
		"sampled", len(flat),
		"original", n,
	)

	return s.packer.Pack(flat, s.targetTokens, 3)
}

// buildSegments は重要文の連続領域を前後の文脈付きセグメントにまとめる
// 重要領域に入るとき直前の文を最大3文、抜けるとき直後の文を最大2文付与する
func buildSegments(scored []scoredSentence, threshold float64) [][]transcript.Sentence {
	n := len(scored)

	isImportant := func(i int) bool {
		// 冒頭・末尾ゾーンは常に保持する
		if float64(i) < float64(n)*boundaryZoneRatio || float64(i) >= float64(n)*(1-boundaryZoneRatio) {
			return true
		}
		return scored[i].Score >= threshold
	}

	var segments [][]transcript.Sentence
	var current []transcript.Sentence
	included := make(map[int]bool, n)

	add := func(sent transcript.Sentence) {
		if included[sent.Index] {
			return
		}
		included[sent.Index] = true
		current = append(current, sent)
	}

	inRegion := false
	for i := 0; i < n; i++ {
		if isImportant(i) {
			if !inRegion {
				// 重要領域の開始: 直前の文脈を先に積む
				start := i - leadInSentences
				if start < 0 {
					start = 0
				}
				for j := start; j < i; j++ {
					add(scored[j].Sentence)
				}
				inRegion = true
			}
			add(scored[i].Sentence)
			continue
		}

		if inRegion {
			// 重要領域の終了: 直後の文脈を付けてセグメントを閉じる
			for j := i; j < i+trailingSentences && j < n; j++ {
				add(scored[j].Sentence)
			}
			segments = append(segments, current)
			current = nil
			inRegion = false
		}
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}

	return segments
}

// scoreSentence は1文の重要度スコアを計算する
// 加点方式で上限は設けない
func scoreSentence(text string, index, total int) float64 {
	var score float64
	pos := float64(index) / float64(total)

	// 位置ボーナス: 冒頭・末尾は重要、中央帯もやや加点
	switch {
	case pos < 0.15:
		score += 3
	case pos >= 0.85:
		score += 2.5
	case pos >= 0.4 && pos < 0.6:
		score += 1
	}

	// 長さボーナス: 適度な長さの文は情報量が多い
	words := len(strings.Fields(text))
	switch {
	case words >= 8 && words <= 30:
		score += 1.5
	case words > 30 && words <= 60:
		score += 1
	}

	// キーワードボーナス: 文頭30%以内に出現する場合は+3、それ以外は+2
	// 複数キーワードにマッチした場合はすべて加算する
	lower := strings.ToLower(text)
	for _, kw := range importanceKeywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		if float64(idx) < float64(len(lower))*0.3 {
			score += 3
		} else {
			score += 2
		}
	}

	// 数字を含む文は具体的な事実を述べている可能性が高い
	if strings.ContainsAny(text, "0123456789") {
		score += 1.5
	}

	// 引用を含む文
	if containsQuote(text) {
		score += 1.5
	}

	return score
}

// containsQuote は引用符で囲まれた部分があるかを判定する
// アポストロフィと区別できないためシングルクォートは対象外
func containsQuote(text string) bool {
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		open := strings.Index(text, pair[0])
		if open < 0 {
			continue
		}
		if strings.Index(text[open+len(pair[0]):], pair[1]) >= 0 {
			return true
		}
	}
	return false
}
