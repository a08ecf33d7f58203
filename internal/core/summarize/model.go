package summarize

import (
	"time"

	"github.com/google/uuid"
)

// Stage はパイプラインの状態を表す
type Stage int

const (
	// StageFetch は文字起こし取得段階
	StageFetch Stage = iota
	// StageValidate は文字起こし検証段階
	StageValidate
	// StageChunk はチャンク分割段階
	StageChunk
	// StageMapSummarize はチャンクごとの並列要約段階
	StageMapSummarize
	// StageReduce は要約統合段階
	StageReduce
	// StageFormat は整形段階
	StageFormat
	// StageSuccess は正常終了（終端状態）
	StageSuccess
	// StageError は異常終了（終端状態）
	StageError
)

// String は段階名を返す
func (s Stage) String() string {
	switch s {
	case StageFetch:
		return "fetch"
	case StageValidate:
		return "validate"
	case StageChunk:
		return "chunk"
	case StageMapSummarize:
		return "map_summarize"
	case StageReduce:
		return "reduce"
	case StageFormat:
		return "format"
	case StageSuccess:
		return "success"
	default:
		return "error"
	}
}

// PipelineContext は全段階を通して引き回される実行コンテキスト
// 1回のパイプライン実行ごとに作成され、終了時に破棄される
type PipelineContext struct {
	// RunID は実行の識別子（ログ追跡用）
	RunID uuid.UUID

	// VideoID は対象の動画識別子
	VideoID string

	// Transcript は取得した文字起こしテキスト
	Transcript string

	// OriginalLength は取得直後の文字数
	OriginalLength int

	// LongVideoMode は文字起こしが予算を超過し縮小予算へ切り替えたかどうか
	LongVideoMode bool

	// Chunks は分割されたチャンク列
	Chunks []string

	// ChunkSummaries はチャンクと同順の要約列
	ChunkSummaries []string

	// Summary は統合された要約
	Summary string

	// FormattedSummary は整形済みの最終出力
	FormattedSummary string

	// Err は最初に発生したエラー
	Err error

	// Stats は実行統計
	Stats RunStats
}

// RunStats はパイプライン実行の統計情報
type RunStats struct {
	// TranscriptTokens は文字起こし全体の推定トークン数
	TranscriptTokens int

	// ChunkCount は生成されたチャンク数
	ChunkCount int

	// MapConcurrency はMap段階で実際に使われた並列度
	MapConcurrency int

	// GenerativeCalls は生成呼び出しの成功回数
	GenerativeCalls int

	// Duration は実行全体の所要時間
	Duration time.Duration
}

// Result はパイプラインの最終出力
type Result struct {
	// Summary は統合された要約（整形前）
	Summary string

	// FormattedSummary はMarkdown整形済みの要約
	FormattedSummary string

	// ChunkCount は処理したチャンク数
	ChunkCount int

	// LongVideoMode は縮小予算モードで実行されたかどうか
	LongVideoMode bool

	// OriginalLength は文字起こしの元の文字数
	OriginalLength int

	// Stats は実行統計
	Stats RunStats

	// Err は失敗時のエラー（成功時はnil）
	Err error
}
