package commands

import (
	"fmt"
	"log/slog"

	"github.com/jinford/transcript-digest/internal/core/chunking"
	"github.com/jinford/transcript-digest/internal/core/generative"
	"github.com/jinford/transcript-digest/internal/core/summarize"
	"github.com/jinford/transcript-digest/internal/core/transcript"
	"github.com/jinford/transcript-digest/internal/infra/openai"
	"github.com/jinford/transcript-digest/internal/infra/transcriptfile"
	"github.com/jinford/transcript-digest/internal/platform/config"
	"github.com/jinford/transcript-digest/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config    *config.Config
	Logger    *slog.Logger
	Source    transcript.Source
	Throttler *generative.RateThrottler
	Client    *generative.RetryingClient
}

// NewAppContext は設定を読み込み、依存を組み立てて AppContext を作成する
// スロットラーとクライアントはプロセス内で共有される長寿命の依存として構築する
func NewAppContext(envFile string) (*AppContext, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	backend, err := openai.NewBackendWithAPIKey(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		return nil, fmt.Errorf("生成バックエンドの初期化に失敗: %w", err)
	}

	throttler := generative.NewRateThrottler(
		generative.WithRequestsPerMinute(cfg.Throttle.RequestsPerMinute),
		generative.WithTokensPerMinute(cfg.Throttle.TokensPerMinute),
		generative.WithMaxDailyRequests(cfg.Throttle.MaxDailyRequests),
		generative.WithThrottlerLogger(appLogger),
	)

	clientOpts := []generative.RetryingClientOption{
		generative.WithMaxAttempts(cfg.Summarize.MaxAttempts),
		generative.WithRetryLogger(appLogger),
	}
	// 使用量記録には可能なら正確なトークンカウンタを使う
	if counter, err := chunking.NewTiktokenCounter(); err == nil {
		clientOpts = append(clientOpts, generative.WithTokenCounter(counter))
	} else {
		appLogger.Warn("tiktokenカウンタの初期化に失敗、推定値を使用", "error", err)
	}

	client := generative.NewRetryingClient(backend, throttler, clientOpts...)

	return &AppContext{
		Config:    cfg,
		Logger:    appLogger,
		Source:    transcriptfile.NewSource(),
		Throttler: throttler,
		Client:    client,
	}, nil
}

// NewPipeline は AppContext の依存からパイプラインを組み立てる
func (ac *AppContext) NewPipeline(pipelineCfg *summarize.Config) *summarize.Pipeline {
	strategy := chunking.NewStrategy(
		chunking.ParseStrategyKind(ac.Config.Summarize.SamplingMethod),
		chunking.WithChunkTargetTokens(ac.Config.Summarize.ChunkTargetTokens),
		chunking.WithStrategyLogger(ac.Logger),
	)

	return summarize.NewPipeline(
		ac.Source,
		ac.Client,
		strategy,
		pipelineCfg,
		summarize.WithPipelineLogger(ac.Logger),
	)
}
