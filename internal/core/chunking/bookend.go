package chunking

import (
	"sort"

	"github.com/jinford/transcript-digest/internal/core/transcript"
)

const (
	// bookendEdgeRatio は保持予算のうち冒頭・末尾それぞれに割り当てる比率
	bookendEdgeRatio = 0.4

	// bookendContextInterval は中間サンプリングでこの間隔を超える場合に
	// 直後の文を文脈として加える
	bookendContextInterval = 4
)

// chunkBookend は冒頭・末尾を厚く残すサンプリングでチャンク化する
// 動画は導入と結論に情報が集中しやすいという前提で、保持予算の約40%ずつを
// 冒頭と末尾に割り当て、残り約20%で中間部を疎にサンプリングする
func (s *Strategy) chunkBookend(sentences []transcript.Sentence, reduction float64) []string {
	n := len(sentences)

	budget := int(float64(n) / reduction)
	if budget < singleChunkThreshold {
		budget = singleChunkThreshold
	}
	if budget >= n {
		return s.packer.Pack(sentences, s.targetTokens, 1)
	}

	edgeCount := int(float64(budget) * bookendEdgeRatio)
	if edgeCount < 1 {
		edgeCount = 1
	}
	middleBudget := budget - edgeCount*2
	if middleBudget < 1 {
		middleBudget = 1
	}

	seen := make(map[int]bool, budget)
	sampled := make([]transcript.Sentence, 0, budget)
	add := func(sent transcript.Sentence) {
		if seen[sent.Index] {
			return
		}
		seen[sent.Index] = true
		sampled = append(sampled, sent)
	}

	// 冒頭ブロック
	for i := 0; i < edgeCount && i < n; i++ {
		add(sentences[i])
	}

	// 末尾ブロック
	for i := n - edgeCount; i < n; i++ {
		if i >= 0 {
			add(sentences[i])
		}
	}

	// 中間部を疎にサンプリング
	middle := sentences[edgeCount : n-edgeCount]
	interval := len(middle) / middleBudget
	if interval < 2 {
		interval = 2
	}
	for i := 0; i < len(middle); i += interval {
		add(middle[i])
		if interval > bookendContextInterval && i+1 < len(middle) {
			add(middle[i+1])
		}
	}

	// サンプリング時に控えた元のインデックスで時系列順に並べ直す
	// （同一テキストの重複文があっても順序が揺れないようにする）
	sort.Slice(sampled, func(i, j int) bool {
		return sampled[i].Index < sampled[j].Index
	})

	s.logger.Debug("ブックエンドサンプリングを実行",
		"budget", budget,
		"edgeCount", edgeCount,
		"middleInterval", interval,
		"sampled", len(sampled),
		"original", n,
	)

	return s.packer.Pack(sampled, s.targetTokens, 1)
}
