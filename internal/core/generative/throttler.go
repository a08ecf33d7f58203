package generative

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRequestsPerMinute はデフォルトの1分あたり最大リクエスト数
	DefaultRequestsPerMinute = 15

	// DefaultTokensPerMinute はデフォルトの1分あたり最大トークン数
	DefaultTokensPerMinute = 1_000_000

	// DefaultMaxDailyRequests はデフォルトの1日あたり最大リクエスト数
	DefaultMaxDailyRequests = 1500

	// throttleWindow はスライディングウィンドウの幅
	throttleWindow = time.Minute
)

// tokenEntry はウィンドウ内の1回分のトークン消費記録
type tokenEntry struct {
	at     time.Time
	tokens int
}

// RateThrottler は生成系API呼び出しに対するレート制限ゲート
// 直近60秒のリクエスト数・トークン数と、プロセスローカルの深夜0時に
// リセットされる日次カウンタの3つの上限を強制する
// すべての並行呼び出し元で共有されるため、チェックと予約は
// 単一のミューテックス内で行う
type RateThrottler struct {
	mu sync.Mutex

	requestsPerMinute int
	tokensPerMinute   int
	maxDailyRequests  int

	// requests はウィンドウ内で許可したリクエストの時刻
	requests []time.Time

	// tokenEntries はウィンドウ内のトークン消費記録
	tokenEntries []tokenEntry

	// dailyCount は当日のリクエスト数
	dailyCount int

	// dailyReset は日次カウンタのリセット時刻（次の深夜0時）
	dailyReset time.Time

	logger *slog.Logger
}

// ThrottlerOption は RateThrottler 構築時のオプション
type ThrottlerOption func(*RateThrottler)

// WithRequestsPerMinute は1分あたり最大リクエスト数を設定する
func WithRequestsPerMinute(n int) ThrottlerOption {
	return func(t *RateThrottler) {
		if n > 0 {
			t.requestsPerMinute = n
		}
	}
}

// WithTokensPerMinute は1分あたり最大トークン数を設定する
func WithTokensPerMinute(n int) ThrottlerOption {
	return func(t *RateThrottler) {
		if n > 0 {
			t.tokensPerMinute = n
		}
	}
}

// WithMaxDailyRequests は1日あたり最大リクエスト数を設定する
func WithMaxDailyRequests(n int) ThrottlerOption {
	return func(t *RateThrottler) {
		if n > 0 {
			t.maxDailyRequests = n
		}
	}
}

// WithThrottlerLogger はロガーを差し替える
func WithThrottlerLogger(logger *slog.Logger) ThrottlerOption {
	return func(t *RateThrottler) {
		t.logger = logger
	}
}

// NewRateThrottler は新しいRateThrottlerを作成する
// デフォルト値は一般的な無償枠クォータを想定した 15req/分・100万トークン/分・1500req/日
func NewRateThrottler(opts ...ThrottlerOption) *RateThrottler {
	t := &RateThrottler{
		requestsPerMinute: DefaultRequestsPerMinute,
		tokensPerMinute:   DefaultTokensPerMinute,
		maxDailyRequests:  DefaultMaxDailyRequests,
		dailyReset:        nextMidnight(time.Now()),
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Throttle は推定トークン数 estimatedTokens の呼び出しが安全になるまでブロックする
// 上限は日次 → リクエスト/分 → トークン/分 の順でチェックする
// 通過した時点でリクエスト1回分を予約する（同時通過による超過を防ぐ）
func (t *RateThrottler) Throttle(ctx context.Context, estimatedTokens int) error {
	for {
		t.mu.Lock()
		now := time.Now()
		t.resetDailyLocked(now)
		t.pruneLocked(now)

		var wait time.Duration
		var reason string

		switch {
		case t.dailyCount >= t.maxDailyRequests:
			// 日次上限: リセット時刻まで待つ
			wait = t.dailyReset.Sub(now)
			reason = "daily"

		case len(t.requests) >= t.requestsPerMinute:
			// リクエスト/分: 最古のエントリがウィンドウを抜けるまで待つ
			wait = t.requests[0].Add(throttleWindow).Sub(now)
			reason = "requests_per_minute"

		case t.windowTokensLocked()+estimatedTokens > t.tokensPerMinute:
			// トークン/分: 厳密な待ち時間は計算せず、保守的にウィンドウ幅ぶん待つ
			wait = throttleWindow
			reason = "tokens_per_minute"

		default:
			t.requests = append(t.requests, now)
			t.dailyCount++
			t.mu.Unlock()
			return nil
		}
		t.mu.Unlock()

		if wait < 0 {
			wait = 0
		}

		t.logger.Info("レート制限により待機",
			"reason", reason,
			"wait", wait.Round(time.Millisecond),
			"estimatedTokens", estimatedTokens,
		)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("レート制限の待機中にキャンセル: %w", ctx.Err())
		}
	}
}

// RecordCall は実際に消費したトークン数を記録する
// Throttle が成功した呼び出しの完了後に呼ぶこと
func (t *RateThrottler) RecordCall(actualTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tokenEntries = append(t.tokenEntries, tokenEntry{
		at:     time.Now(),
		tokens: actualTokens,
	})
}

// Status は現在のスロットラーの状態を返す（監視・テスト用）
func (t *RateThrottler) Status() ThrottlerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.resetDailyLocked(now)
	t.pruneLocked(now)

	return ThrottlerStatus{
		WindowRequests: len(t.requests),
		WindowTokens:   t.windowTokensLocked(),
		DailyRequests:  t.dailyCount,
		DailyReset:     t.dailyReset,
	}
}

// ThrottlerStatus はレート制限の状態
type ThrottlerStatus struct {
	WindowRequests int
	WindowTokens   int
	DailyRequests  int
	DailyReset     time.Time
}

// String はステータスを文字列表現で返す
func (s ThrottlerStatus) String() string {
	return fmt.Sprintf(
		"Throttler: windowRequests=%d, windowTokens=%d, daily=%d, reset=%s",
		s.WindowRequests,
		s.WindowTokens,
		s.DailyRequests,
		s.DailyReset.Format(time.RFC3339),
	)
}

// pruneLocked はウィンドウ外の記録を削除する
// 呼び出し側でロックを取得していることを前提とする
func (t *RateThrottler) pruneLocked(now time.Time) {
	cutoff := now.Add(-throttleWindow)

	i := 0
	for i < len(t.requests) && t.requests[i].Before(cutoff) {
		i++
	}
	t.requests = t.requests[i:]

	j := 0
	for j < len(t.tokenEntries) && t.tokenEntries[j].at.Before(cutoff) {
		j++
	}
	t.tokenEntries = t.tokenEntries[j:]
}

// windowTokensLocked はウィンドウ内の消費トークン合計を返す
func (t *RateThrottler) windowTokensLocked() int {
	var total int
	for _, e := range t.tokenEntries {
		total += e.tokens
	}
	return total
}

// resetDailyLocked はリセット時刻を過ぎていれば日次カウンタをリセットする
func (t *RateThrottler) resetDailyLocked(now time.Time) {
	if now.Before(t.dailyReset) {
		return
	}
	t.dailyCount = 0
	t.dailyReset = nextMidnight(now)
	t.logger.Info("日次リクエストカウンタをリセット", "nextReset", t.dailyReset)
}

// nextMidnight はプロセスのローカルタイムゾーンでの次の深夜0時を返す
func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
