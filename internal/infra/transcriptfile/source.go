// Package transcriptfile はローカルファイルを文字起こしの取得元として扱う
// transcript.Source 実装を提供する。動画プラットフォームからの字幕取得は
// 外部ツールに委ね、その出力ファイルをここで読み込む想定
package transcriptfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/jinford/transcript-digest/internal/core/transcript"
	"github.com/samber/mo"
)

// videoURLPatterns はURLから動画識別子を抽出するパターン
// watch形式・短縮形式・埋め込み形式に対応する
var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{11})`),
}

// Source はファイルパス（または "-" で標準入力）を識別子として
// 文字起こしを読み込む transcript.Source 実装
type Source struct {
	stdin io.Reader
}

// NewSource は新しいSourceを作成する
func NewSource() *Source {
	return &Source{stdin: os.Stdin}
}

// Fetch は識別子をファイルパスとして解釈し、内容を読み込んで返す
func (s *Source) Fetch(_ context.Context, videoID string) (string, error) {
	if videoID == "-" {
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return "", &transcript.FetchError{VideoID: videoID, Err: fmt.Errorf("標準入力の読み込みに失敗: %w", err)}
		}
		return string(data), nil
	}

	data, err := os.ReadFile(videoID)
	if err != nil {
		return "", &transcript.FetchError{VideoID: videoID, Err: err}
	}
	return string(data), nil
}

// ExtractIdentifier は動画URLから11桁の動画識別子を抽出する
// どのパターンにも一致しない場合は None を返す
func (s *Source) ExtractIdentifier(url string) mo.Option[string] {
	for _, re := range videoURLPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return mo.Some(m[1])
		}
	}
	return mo.None[string]()
}

// インターフェース実装の確認
var _ transcript.Source = (*Source)(nil)
