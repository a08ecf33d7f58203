package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jinford/transcript-digest/internal/core/summarize"
	"github.com/urfave/cli/v3"
)

// SummarizeAction は文字起こしを要約するコマンドのアクション
func SummarizeAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	file := cmd.String("file")
	url := cmd.String("url")

	if file == "" {
		return fmt.Errorf("--file は必須です")
	}

	// 共通コンテキストの初期化
	appCtx, err := NewAppContext(envFile)
	if err != nil {
		return err
	}

	// フラグによる設定の上書き
	if method := cmd.String("method"); method != "" {
		appCtx.Config.Summarize.SamplingMethod = method
	}

	pipelineCfg := &summarize.Config{
		MaxTranscriptTokens: appCtx.Config.Summarize.MaxTranscriptTokens,
		LongVideoMaxTokens:  appCtx.Config.Summarize.LongVideoMaxTokens,
		MaxConcurrent:       appCtx.Config.Summarize.MaxConcurrent,
		Model:               cmd.String("model"),
		MinTranscriptChars:  appCtx.Config.Summarize.MinTranscriptChars,
	}
	if v := int(cmd.Int("max-length")); v > 0 {
		pipelineCfg.MaxTranscriptTokens = v
	}
	if cmd.Bool("long-video") && pipelineCfg.LongVideoMaxTokens > 0 {
		// 縮小予算を最初から適用する
		pipelineCfg.MaxTranscriptTokens = pipelineCfg.LongVideoMaxTokens
	}

	// URLが与えられた場合は動画識別子を抽出してログに残す
	if url != "" {
		if id, ok := appCtx.Source.ExtractIdentifier(url).Get(); ok {
			appCtx.Logger.Info("動画識別子を抽出", "videoID", id)
		} else {
			appCtx.Logger.Warn("URLから動画識別子を抽出できませんでした", "url", url)
		}
	}

	pipeline := appCtx.NewPipeline(pipelineCfg)

	result := pipeline.Run(ctx, file)
	if result.Err != nil {
		return fmt.Errorf("要約に失敗: %w", result.Err)
	}

	appCtx.Logger.Info("要約が完了",
		"chunks", result.ChunkCount,
		"originalLength", result.OriginalLength,
		"longVideoMode", result.LongVideoMode,
	)

	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, []byte(result.FormattedSummary), 0o644); err != nil {
			return fmt.Errorf("要約の書き込みに失敗: %w", err)
		}
		return nil
	}

	fmt.Println(result.FormattedSummary)
	return nil
}
