package transcript

import (
	"context"
	"fmt"

	"github.com/samber/mo"
)

// Transcript は1回の要約処理で扱う文字起こしテキストを表す
type Transcript struct {
	// Text は文字起こしの本文
	Text string

	// OriginalLength はサンプリング前の元の文字数
	// サンプリングで本文が縮小された後もレポート用に保持する
	OriginalLength int
}

// New は新しいTranscriptを作成する
func New(text string) Transcript {
	return Transcript{
		Text:           text,
		OriginalLength: len(text),
	}
}

// Sentence は文字起こし内の1文を表す
// Index は文分割直後の0始まりの位置で、サンプリング後の並べ直しに使用する
type Sentence struct {
	Index int
	Text  string
}

// Source は文字起こしの取得元を抽象化するインターフェース
// 実装は internal/infra 側に置く
type Source interface {
	// Fetch は動画識別子から文字起こしテキストを取得する
	Fetch(ctx context.Context, videoID string) (string, error)

	// ExtractIdentifier はURLから動画識別子を抽出する
	// 抽出できない場合は None を返す
	ExtractIdentifier(url string) mo.Option[string]
}

// FetchError は文字起こしの取得に失敗したことを表す
type FetchError struct {
	VideoID string
	Err     error
}

// Error はエラーメッセージを返す
func (e *FetchError) Error() string {
	return fmt.Sprintf("文字起こしの取得に失敗 (videoID=%s): %v", e.VideoID, e.Err)
}

// Unwrap はラップされたエラーを返す
func (e *FetchError) Unwrap() error {
	return e.Err
}
