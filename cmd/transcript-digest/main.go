package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinford/transcript-digest/cmd/transcript-digest/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "transcript-digest",
		Usage: "長時間の文字起こしからレート制限付きMap-Reduceで要約を生成するツール",
		Commands: []*cli.Command{
			{
				Name:  "summarize",
				Usage: "文字起こしを要約する",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "文字起こしファイルのパス（\"-\" で標準入力）",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "動画URL（識別子の抽出のみ。文字起こしは --file で与える）",
					},
					&cli.StringFlag{
						Name:  "method",
						Usage: "サンプリング戦略 (uniform / bookend / intelligent)",
					},
					&cli.IntFlag{
						Name:  "max-length",
						Usage: "文字起こしの処理予算（推定トークン数）",
					},
					&cli.BoolFlag{
						Name:  "long-video",
						Usage: "長尺動画モード（縮小予算）を強制する",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "生成に使うモデル名",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "整形済み要約の出力先ファイル（省略時は標準出力）",
					},
				},
				Action: commands.SummarizeAction,
			},
			{
				Name:   "version",
				Usage:  "バージョン情報を表示",
				Action: commands.VersionAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
