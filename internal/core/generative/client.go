package generative

import (
	"context"
	"fmt"
)

// Backend は生成系バックエンドとのやり取りを抽象化するインターフェース
// 実装は internal/infra 側に置く
type Backend interface {
	// Generate はプロンプトに基づいてテキストを生成する
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request は生成リクエストのパラメータ
type Request struct {
	// Prompt はバックエンドに送信するプロンプト
	Prompt string

	// Model はモデル名（省略時はバックエンドのデフォルトを使用）
	Model string

	// MaxOutputTokens は生成する最大トークン数
	MaxOutputTokens int

	// Temperature は生成の多様性を制御する (0.0-2.0)
	Temperature float64
}

// Response は生成結果
type Response struct {
	// Content は生成されたテキスト
	Content string

	// TokensUsed はバックエンドが報告した消費トークン数（不明なら0）
	TokensUsed int

	// Model は実際に使用されたモデル名
	Model string
}

// GenerationError はリトライを使い切った後の生成失敗を表す
type GenerationError struct {
	Attempts int
	Err      error
}

// Error はエラーメッセージを返す
func (e *GenerationError) Error() string {
	return fmt.Sprintf("テキスト生成に失敗 (%d回試行): %v", e.Attempts, e.Err)
}

// Unwrap はラップされたエラーを返す
func (e *GenerationError) Unwrap() error {
	return e.Err
}
