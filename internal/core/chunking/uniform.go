package chunking

import (
	"math"

	"github.com/jinford/transcript-digest/internal/core/transcript"
)

// contextInterval はこの間隔を超える場合に直後の文を文脈として加える
const contextInterval = 2

// chunkUniform は等間隔サンプリングでチャンク化する
// 削減係数から固定の間隔を求め、interval 文ごとに1文を採用する
// 間隔が大きい場合は採用文の直後の文も文脈として残す
func (s *Strategy) chunkUniform(sentences []transcript.Sentence, reduction float64) []string {
	interval := int(math.Ceil(reduction))
	if interval < 2 {
		interval = 2
	}

	sampled := make([]transcript.Sentence, 0, len(sentences)/interval*2+1)
	for i := 0; i < len(sentences); i += interval {
		sampled = append(sampled, sentences[i])

		// 間隔が大きいときは直後の1文を文脈として含める
		if interval > contextInterval && i+1 < len(sentences) {
			sampled = append(sampled, sentences[i+1])
		}
	}

	s.logger.Debug("等間隔サンプリングを実行",
		"interval", interval,
		"sampled", len(sampled),
		"original", len(sentences),
	)

	return s.packer.Pack(sampled, s.targetTokens, 1)
}
