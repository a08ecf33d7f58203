package chunking

import (
	"errors"
	"log/slog"

	"github.com/jinford/transcript-digest/internal/core/transcript"
)

// ErrNoChunks はチャンクが1つも生成できなかったことを表す
var ErrNoChunks = errors.New("チャンクを生成できませんでした")

const (
	// DefaultChunkTargetTokens はチャンク1つあたりの目標トークン数
	DefaultChunkTargetTokens = 2000

	// samplingThreshold はサンプリングを発動する削減係数の閾値
	// これ未満なら文字起こしはほぼ予算内に収まっているため間引きしない
	samplingThreshold = 1.5

	// budgetMargin は予算に対する安全マージン
	budgetMargin = 0.9
)

// StrategyKind はチャンク分割戦略の種別
type StrategyKind int

const (
	// StrategyUniform は等間隔サンプリング
	StrategyUniform StrategyKind = iota
	// StrategyBookend は冒頭・末尾重視サンプリング
	StrategyBookend
	// StrategyIntelligent は重要度スコアベースのサンプリング
	StrategyIntelligent
)

// String は戦略名を返す
func (k StrategyKind) String() string {
	switch k {
	case StrategyUniform:
		return "uniform"
	case StrategyBookend:
		return "bookend"
	default:
		return "intelligent"
	}
}

// ParseStrategyKind は戦略名をStrategyKindに変換する
// 未知の名前はIntelligentにフォールバックする
func ParseStrategyKind(name string) StrategyKind {
	switch name {
	case "uniform":
		return StrategyUniform
	case "bookend":
		return StrategyBookend
	default:
		return StrategyIntelligent
	}
}

// Strategy は文字起こしのチャンク分割戦略
// 種別は構築時に一度だけ決定され、実行時の文字列比較は行わない
type Strategy struct {
	kind         StrategyKind
	splitter     *transcript.SentenceSplitter
	packer       *ChunkPacker
	targetTokens int
	logger       *slog.Logger
}

// StrategyOption は Strategy 構築時のオプション
type StrategyOption func(*Strategy)

// WithStrategyLogger はロガーを差し替える
func WithStrategyLogger(logger *slog.Logger) StrategyOption {
	return func(s *Strategy) {
		s.logger = logger
	}
}

// WithChunkTargetTokens はチャンクあたりの目標トークン数を設定する
func WithChunkTargetTokens(tokens int) StrategyOption {
	return func(s *Strategy) {
		if tokens > 0 {
			s.targetTokens = tokens
		}
	}
}

// NewStrategy は新しいStrategyを作成する
func NewStrategy(kind StrategyKind, opts ...StrategyOption) *Strategy {
	s := &Strategy{
		kind:         kind,
		splitter:     transcript.NewSentenceSplitter(),
		packer:       NewChunkPacker(),
		targetTokens: DefaultChunkTargetTokens,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind は戦略種別を返す
func (s *Strategy) Kind() StrategyKind {
	return s.kind
}

// ChunkTranscript は文字起こしをチャンク列に分割する
// maxTokens は処理予算（推定トークン数）で、これを大きく超える場合のみ
// 戦略ごとのサンプリングで文を間引いてから詰め込む
func (s *Strategy) ChunkTranscript(text string, maxTokens int) ([]string, error) {
	sentences := s.splitter.SplitIndexed(text)

	// 1文以下なら分割の意味がないため全文を1チャンクとして返す
	if len(sentences) <= 1 {
		return []string{text}, nil
	}

	totalTokens := EstimateTokens(text)
	reduction := float64(totalTokens) / (float64(maxTokens) * budgetMargin)

	// 予算内に収まる場合はサンプリングせずそのまま詰め込む
	// Intelligent戦略の小規模パスは並列度確保のため最低チャンク数を強制する
	if reduction < samplingThreshold {
		var chunks []string
		if s.kind == StrategyIntelligent && totalTokens <= smallTranscriptTokens {
			chunks = s.packSmall(sentences)
		} else {
			chunks = s.packer.Pack(sentences, s.targetTokens, 1)
		}
		s.logger.Info("サンプリングなしでチャンク化",
			"strategy", s.kind.String(),
			"sentences", len(sentences),
			"totalTokens", totalTokens,
			"reduction", reduction,
			"chunks", len(chunks),
		)
		if len(chunks) == 0 {
			return nil, ErrNoChunks
		}
		return chunks, nil
	}

	var chunks []string
	switch s.kind {
	case StrategyUniform:
		chunks = s.chunkUniform(sentences, reduction)
	case StrategyBookend:
		chunks = s.chunkBookend(sentences, reduction)
	default:
		chunks = s.chunkIntelligent(sentences, totalTokens, reduction)
	}

	s.logger.Info("サンプリング付きチャンク化が完了",
		"strategy", s.kind.String(),
		"sentences", len(sentences),
		"totalTokens", totalTokens,
		"reduction", reduction,
		"chunks", len(chunks),
	)

	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}
	return chunks, nil
}
