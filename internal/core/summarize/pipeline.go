package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinford/transcript-digest/internal/core/chunking"
	"github.com/jinford/transcript-digest/internal/core/generative"
	"github.com/jinford/transcript-digest/internal/core/transcript"
)

const (
	// DefaultMaxTranscriptTokens は高品質モードの文字起こし処理予算（推定トークン）
	DefaultMaxTranscriptTokens = 12000

	// DefaultLongVideoMaxTokens は長尺動画モードの縮小予算
	DefaultLongVideoMaxTokens = 6000

	// DefaultMaxConcurrent はMap段階の並列度上限
	DefaultMaxConcurrent = 3

	// mapConcurrencyBase はチャンク数から実効並列度を導く基準値
	// チャンクが多いほどバッチを絞り、少ないときは余裕を持たせる
	mapConcurrencyBase = 6
)

// Generator は生成呼び出しを抽象化するインターフェース
// 本番では generative.RetryingClient を注入する
type Generator interface {
	Generate(ctx context.Context, req generative.Request) (generative.Response, error)
}

// Config はパイプラインの実行設定
type Config struct {
	// MaxTranscriptTokens は通常（高品質）モードの処理予算
	MaxTranscriptTokens int

	// LongVideoMaxTokens は予算超過時に切り替える縮小予算
	// 0の場合は切り替えず MaxTranscriptTokens をそのまま使う
	LongVideoMaxTokens int

	// MaxConcurrent はMap段階の並列度上限
	MaxConcurrent int

	// Model は生成に使うモデル名（空ならバックエンドのデフォルト）
	Model string

	// MinTranscriptChars は検証で受理する最小文字数
	MinTranscriptChars int
}

// DefaultConfig はデフォルトのパイプライン設定を返す
func DefaultConfig() *Config {
	return &Config{
		MaxTranscriptTokens: DefaultMaxTranscriptTokens,
		LongVideoMaxTokens:  DefaultLongVideoMaxTokens,
		MaxConcurrent:       DefaultMaxConcurrent,
		MinTranscriptChars:  DefaultMinTranscriptChars,
	}
}

// Pipeline は文字起こし要約のステートマシン
// Fetch → Validate → Chunk → MapSummarize → Reduce → Format を順に実行し、
// いずれかの段階で失敗したら Error 終端へ遷移する
// グローバル状態は持たず、依存はすべて構築時に注入する
type Pipeline struct {
	source    transcript.Source
	generator Generator
	strategy  *chunking.Strategy
	config    *Config
	logger    *slog.Logger
}

// PipelineOption は Pipeline 構築時のオプション
type PipelineOption func(*Pipeline)

// WithPipelineLogger はロガーを差し替える
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline は新しいPipelineを作成する
func NewPipeline(
	source transcript.Source,
	generator Generator,
	strategy *chunking.Strategy,
	config *Config,
	opts ...PipelineOption,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxTranscriptTokens <= 0 {
		config.MaxTranscriptTokens = DefaultMaxTranscriptTokens
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}

	p := &Pipeline{
		source:    source,
		generator: generator,
		strategy:  strategy,
		config:    config,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run は動画識別子に対してパイプラインを最後まで実行する
func (p *Pipeline) Run(ctx context.Context, videoID string) *Result {
	start := time.Now()

	pc := &PipelineContext{
		RunID:   uuid.New(),
		VideoID: videoID,
	}

	logger := p.logger.With("runID", pc.RunID, "videoID", videoID)

	stage := StageFetch
	for stage != StageSuccess && stage != StageError {
		logger.Debug("段階を開始", "stage", stage.String())
		stage = p.step(ctx, stage, pc)
	}

	pc.Stats.Duration = time.Since(start)

	if stage == StageError {
		logger.Error("パイプラインが失敗",
			"error", pc.Err,
			"duration", pc.Stats.Duration.Round(time.Millisecond),
		)
	} else {
		logger.Info("パイプラインが完了",
			"chunks", pc.Stats.ChunkCount,
			"calls", pc.Stats.GenerativeCalls,
			"longVideoMode", pc.LongVideoMode,
			"duration", pc.Stats.Duration.Round(time.Millisecond),
		)
	}

	return &Result{
		Summary:          pc.Summary,
		FormattedSummary: pc.FormattedSummary,
		ChunkCount:       pc.Stats.ChunkCount,
		LongVideoMode:    pc.LongVideoMode,
		OriginalLength:   pc.OriginalLength,
		Stats:            pc.Stats,
		Err:              pc.Err,
	}
}

// step は1段階を実行し、次の段階を返す
func (p *Pipeline) step(ctx context.Context, stage Stage, pc *PipelineContext) Stage {
	switch stage {
	case StageFetch:
		return p.runFetch(ctx, pc)
	case StageValidate:
		return p.runValidate(pc)
	case StageChunk:
		return p.runChunk(pc)
	case StageMapSummarize:
		return p.runMapSummarize(ctx, pc)
	case StageReduce:
		return p.runReduce(ctx, pc)
	case StageFormat:
		return p.runFormat(pc)
	default:
		return StageError
	}
}

// fail はエラーを記録してError終端へ遷移する
func (p *Pipeline) fail(pc *PipelineContext, stage Stage, err error) Stage {
	pc.Err = fmt.Errorf("%s段階で失敗: %w", stage.String(), err)
	return StageError
}

// runFetch は文字起こしを取得する
func (p *Pipeline) runFetch(ctx context.Context, pc *PipelineContext) Stage {
	text, err := p.source.Fetch(ctx, pc.VideoID)
	if err != nil {
		return p.fail(pc, StageFetch, err)
	}

	pc.Transcript = text
	pc.OriginalLength = len(text)
	return StageValidate
}

// runValidate は文字起こしの品質を検証する
func (p *Pipeline) runValidate(pc *PipelineContext) Stage {
	if verr := validateTranscript(pc.Transcript, p.config.MinTranscriptChars); verr != nil {
		return p.fail(pc, StageValidate, verr)
	}
	return StageChunk
}

// runChunk は文字起こしをチャンク列に分割する
// 予算を超過する文字起こしは長尺動画モードに切り替え、縮小予算で処理する
func (p *Pipeline) runChunk(pc *PipelineContext) Stage {
	totalTokens := chunking.EstimateTokens(pc.Transcript)
	pc.Stats.TranscriptTokens = totalTokens

	budget := p.config.MaxTranscriptTokens
	if totalTokens > budget && p.config.LongVideoMaxTokens > 0 {
		pc.LongVideoMode = true
		budget = p.config.LongVideoMaxTokens
		p.logger.Info("長尺動画モードに切り替え",
			"runID", pc.RunID,
			"totalTokens", totalTokens,
			"budget", budget,
		)
	}

	chunks, err := p.strategy.ChunkTranscript(pc.Transcript, budget)
	if err != nil {
		return p.fail(pc, StageChunk, err)
	}

	pc.Chunks = chunks
	pc.Stats.ChunkCount = len(chunks)
	return StageMapSummarize
}

// runMapSummarize は全チャンクを有界並列で要約する
// チャンクはバッチ単位で実行し、バッチ全体の完了を待ってから次へ進む
// 要約はチャンクの元のインデックス位置に書き込むため、
// バッチ内の完了順序が入れ替わってもReduce段階の位置情報は壊れない
func (p *Pipeline) runMapSummarize(ctx context.Context, pc *PipelineContext) Stage {
	total := len(pc.Chunks)
	concurrency := actualConcurrency(p.config.MaxConcurrent, total)
	pc.Stats.MapConcurrency = concurrency

	p.logger.Info("Map段階を開始",
		"runID", pc.RunID,
		"chunks", total,
		"concurrency", concurrency,
	)

	summaries := make([]string, total)

	var mu sync.Mutex
	var firstErr error

	for start := 0; start < total; start += concurrency {
		end := start + concurrency
		if end > total {
			end = total
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				resp, err := p.generator.Generate(ctx, generative.Request{
					Prompt:          buildMapPrompt(pc.Chunks[idx], idx, total),
					Model:           p.config.Model,
					MaxOutputTokens: DefaultMapMaxTokens,
					Temperature:     MapTemperature,
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("チャンク %d/%d の要約に失敗: %w", idx+1, total, err)
					}
					return
				}
				summaries[idx] = resp.Content
				pc.Stats.GenerativeCalls++
			}(i)
		}

		// バッチ全体の完了を待つバリア
		wg.Wait()

		if firstErr != nil {
			return p.fail(pc, StageMapSummarize, firstErr)
		}
	}

	pc.ChunkSummaries = summaries
	return StageReduce
}

// runReduce は全チャンク要約を1つの要約に統合する
func (p *Pipeline) runReduce(ctx context.Context, pc *PipelineContext) Stage {
	resp, err := p.generator.Generate(ctx, generative.Request{
		Prompt:          buildReducePrompt(pc.ChunkSummaries),
		Model:           p.config.Model,
		MaxOutputTokens: DefaultReduceMaxTokens,
		Temperature:     ReduceTemperature,
	})
	if err != nil {
		return p.fail(pc, StageReduce, err)
	}

	pc.Summary = resp.Content
	pc.Stats.GenerativeCalls++
	return StageFormat
}

// runFormat は統合要約を最終出力に整形する
func (p *Pipeline) runFormat(pc *PipelineContext) Stage {
	title := fmt.Sprintf("Video Summary: %s", pc.VideoID)
	pc.FormattedSummary = formatSummary(pc.Summary, title, time.Now())
	return StageSuccess
}

// actualConcurrency はMap段階の実効並列度を求める
// チャンクが多いほどバッチ幅を絞り、少ないチャンクにはやや広めに割り当てる
func actualConcurrency(configuredMax, chunkCount int) int {
	if chunkCount <= 0 {
		return 1
	}

	base := (mapConcurrencyBase + chunkCount - 1) / chunkCount
	if base < 2 {
		base = 2
	}
	if base > configuredMax {
		base = configuredMax
	}
	if base < 1 {
		base = 1
	}
	return base
}
