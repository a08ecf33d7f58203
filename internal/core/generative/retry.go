package generative

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jinford/transcript-digest/internal/core/chunking"
)

const (
	// DefaultMaxAttempts はデフォルトの最大試行回数
	DefaultMaxAttempts = 3

	// defaultBackoffBase はExponential Backoffの基底時間
	defaultBackoffBase = time.Second

	// maxBackoff はExponential Backoffの最大待機時間
	maxBackoff = 32 * time.Second
)

// RetryingClient はスロットリングとリトライ付きの生成クライアント
// すべての生成呼び出しは共有の RateThrottler を通過してから実行され、
// 失敗時は指数バックオフで既定回数まで再試行する
type RetryingClient struct {
	backend   Backend
	throttler *RateThrottler
	counter   chunking.TokenCounter

	maxAttempts int
	backoffBase time.Duration
	logger      *slog.Logger
}

// RetryingClientOption は RetryingClient 構築時のオプション
type RetryingClientOption func(*RetryingClient)

// WithMaxAttempts は最大試行回数を設定する
func WithMaxAttempts(n int) RetryingClientOption {
	return func(c *RetryingClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoffBase はバックオフの基底時間を設定する（主にテスト用）
func WithBackoffBase(d time.Duration) RetryingClientOption {
	return func(c *RetryingClient) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// WithTokenCounter は使用量記録に使うトークンカウンタを差し替える
// 未指定の場合は文字数ベースの推定値を使う
func WithTokenCounter(counter chunking.TokenCounter) RetryingClientOption {
	return func(c *RetryingClient) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// WithRetryLogger はロガーを差し替える
func WithRetryLogger(logger *slog.Logger) RetryingClientOption {
	return func(c *RetryingClient) {
		c.logger = logger
	}
}

// NewRetryingClient は新しいRetryingClientを作成する
func NewRetryingClient(backend Backend, throttler *RateThrottler, opts ...RetryingClientOption) *RetryingClient {
	c := &RetryingClient{
		backend:     backend,
		throttler:   throttler,
		counter:     chunking.EstimatorCounter{},
		maxAttempts: DefaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate はレート制限とリトライ付きでテキストを生成する
// 全試行が失敗した場合は最後のエラーを GenerationError にラップして返す
func (c *RetryingClient) Generate(ctx context.Context, req Request) (Response, error) {
	// プロンプト + 最大出力トークンで呼び出しコストを見積もる
	estimated := chunking.EstimateTokens(req.Prompt) + req.MaxOutputTokens

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoffFor(attempt)
			c.logger.Warn("生成に失敗、バックオフ後に再試行",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return Response{}, fmt.Errorf("バックオフ待機中にキャンセル: %w", ctx.Err())
			}
		}

		if err := c.throttler.Throttle(ctx, estimated); err != nil {
			return Response{}, err
		}

		resp, err := c.backend.Generate(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}

		c.throttler.RecordCall(c.usedTokens(req, resp))
		return resp, nil
	}

	return Response{}, &GenerationError{Attempts: c.maxAttempts, Err: lastErr}
}

// usedTokens は記録すべき消費トークン数を求める
// バックエンドが実数を報告した場合はそれを優先し、
// 不明な場合はプロンプトの実カウント + レスポンスの推定で補う
func (c *RetryingClient) usedTokens(req Request, resp Response) int {
	if resp.TokensUsed > 0 {
		return resp.TokensUsed
	}
	return c.counter.CountTokens(req.Prompt) + c.counter.CountTokens(resp.Content)
}

// backoffFor は attempt 回目の再試行前の待機時間を返す（2^attempt 秒、上限あり）
func (c *RetryingClient) backoffFor(attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * c.backoffBase
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}
