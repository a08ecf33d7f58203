package chunking

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// charsPerToken はトークン数推定に使う文字数比
// 英語テキストで約4文字=1トークンという粗い近似で、
// 下流の予算計算はすべてこの値をヒューリスティックとして扱う
const charsPerToken = 4

// EstimateTokens はテキストの推定トークン数を返す
// 正確なエンコードは行わず ceil(文字数 / 4) の固定比率で見積もる
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// TokenCounter はトークン数カウントを抽象化するインターフェース
// 予算計算には EstimateTokens を使い、実使用量の記録には
// より正確な実装（TiktokenCounter）を差し込める
type TokenCounter interface {
	CountTokens(text string) int
}

// EstimatorCounter は EstimateTokens による推定値を返す TokenCounter
type EstimatorCounter struct{}

// CountTokens は推定トークン数を返す
func (EstimatorCounter) CountTokens(text string) int {
	return EstimateTokens(text)
}

// TiktokenCounter は tiktoken のエンコーダで正確にカウントする TokenCounter
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter は cl100k_base エンコーディングの TiktokenCounter を作成する
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &TiktokenCounter{encoding: encoding}, nil
}

// CountTokens はテキストのトークン数をカウントする
func (tc *TiktokenCounter) CountTokens(text string) int {
	if tc.encoding == nil {
		return 0
	}
	return len(tc.encoding.Encode(text, nil, nil))
}
