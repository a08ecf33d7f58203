package chunking

import (
	"math"
	"strings"

	"github.com/jinford/transcript-digest/internal/core/transcript"
)

const (
	// singleChunkThreshold はこの文数以下なら分割せず1チャンクにまとめる
	singleChunkThreshold = 10

	// minSentencesPerChunk は1チャンクに含める最小文数
	minSentencesPerChunk = 5

	// overlapRatio は隣接チャンク間で重複させる文数の比率
	// チャンク境界をまたぐ文脈を保持するためのもの
	overlapRatio = 0.15
)

// ChunkPacker は文の列をトークン予算内のチャンク列に詰め込む
// 文の途中では決して分割しない。1文が予算を超える場合は
// そのままチャンクに入れる（ベストエフォート、エラーにしない）
type ChunkPacker struct{}

// NewChunkPacker は新しいChunkPackerを作成する
func NewChunkPacker() *ChunkPacker {
	return &ChunkPacker{}
}

// Pack は文の列を targetTokens を目安としたチャンク列に変換する
// minChunks は最低チャンク数のヒント（Map段階の並列度を確保したい場合に指定）
func (p *ChunkPacker) Pack(sentences []transcript.Sentence, targetTokens, minChunks int) []string {
	if len(sentences) == 0 {
		return nil
	}

	// 少量の文はそのまま1チャンク
	if len(sentences) <= singleChunkThreshold && minChunks <= 1 {
		return []string{joinSentences(sentences)}
	}

	totalTokens := EstimateTokens(joinSentences(sentences))

	numChunks := int(math.Ceil(float64(totalTokens) / float64(targetTokens)))
	if numChunks < minChunks {
		numChunks = minChunks
	}
	if numChunks < 1 {
		numChunks = 1
	}
	if numChunks == 1 {
		return []string{joinSentences(sentences)}
	}

	perChunk := int(math.Ceil(float64(len(sentences)) / float64(numChunks)))
	if perChunk < minSentencesPerChunk {
		perChunk = minSentencesPerChunk
	}

	overlap := int(math.Ceil(float64(perChunk) * overlapRatio))
	step := perChunk - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(sentences); start += step {
		end := start + perChunk
		if end > len(sentences) {
			end = len(sentences)
		}

		chunk := joinSentences(sentences[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		// ウィンドウが末尾に達したら終了
		if end == len(sentences) {
			break
		}
	}

	return chunks
}

// joinSentences は文の列を1つのテキストに連結する
func joinSentences(sentences []transcript.Sentence) string {
	parts := make([]string, len(sentences))
	for i, s := range sentences {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}
