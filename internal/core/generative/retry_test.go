package generative

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend は指定回数だけ失敗した後に成功するBackend
type fakeBackend struct {
	failures int
	calls    int
	resp     Response
}

func (b *fakeBackend) Generate(_ context.Context, _ Request) (Response, error) {
	b.calls++
	if b.calls <= b.failures {
		return Response{}, fmt.Errorf("一時的なエラー (call %d)", b.calls)
	}
	return b.resp, nil
}

func newTestClient(backend Backend, opts ...RetryingClientOption) *RetryingClient {
	throttler := NewRateThrottler(WithRequestsPerMinute(1000))
	base := []RetryingClientOption{WithBackoffBase(time.Millisecond)}
	return NewRetryingClient(backend, throttler, append(base, opts...)...)
}

func TestRetryingClient_SuccessFirstAttempt(t *testing.T) {
	backend := &fakeBackend{resp: Response{Content: "generated text", TokensUsed: 42}}
	client := newTestClient(backend)

	resp, err := client.Generate(context.Background(), Request{Prompt: "summarize this"})

	require.NoError(t, err)
	assert.Equal(t, "generated text", resp.Content)
	assert.Equal(t, 1, backend.calls)

	// 実消費トークンがスロットラーに記録される
	assert.Equal(t, 42, client.throttler.Status().WindowTokens)
}

func TestRetryingClient_RetriesThenSucceeds(t *testing.T) {
	backend := &fakeBackend{failures: 2, resp: Response{Content: "ok"}}
	client := newTestClient(backend)

	resp, err := client.Generate(context.Background(), Request{Prompt: "summarize this"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, backend.calls)
}

func TestRetryingClient_ExhaustsAttempts(t *testing.T) {
	backend := &fakeBackend{failures: 100}
	client := newTestClient(backend)

	_, err := client.Generate(context.Background(), Request{Prompt: "summarize this"})

	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, backend.calls)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, DefaultMaxAttempts, genErr.Attempts)
	assert.ErrorContains(t, genErr.Err, "一時的なエラー")
}

func TestRetryingClient_MaxAttemptsOption(t *testing.T) {
	backend := &fakeBackend{failures: 100}
	client := newTestClient(backend, WithMaxAttempts(5))

	_, err := client.Generate(context.Background(), Request{Prompt: "summarize this"})

	require.Error(t, err)
	assert.Equal(t, 5, backend.calls)
}

func TestRetryingClient_EstimatesUsageWhenUnreported(t *testing.T) {
	// TokensUsed=0 の場合はプロンプトとレスポンスのカウントで補う
	backend := &fakeBackend{resp: Response{Content: "12345678"}}
	client := newTestClient(backend)

	prompt := "abcdefgh"
	_, err := client.Generate(context.Background(), Request{Prompt: prompt})

	require.NoError(t, err)
	assert.Equal(t, 4, client.throttler.Status().WindowTokens)
}

func TestRetryingClient_ContextCancelDuringBackoff(t *testing.T) {
	backend := &fakeBackend{failures: 100}
	throttler := NewRateThrottler(WithRequestsPerMinute(1000))
	client := NewRetryingClient(backend, throttler, WithBackoffBase(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, Request{Prompt: "summarize this"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, backend.calls)
}

func TestRetryingClient_BackoffGrowth(t *testing.T) {
	client := newTestClient(&fakeBackend{})
	client.backoffBase = time.Second

	assert.Equal(t, 2*time.Second, client.backoffFor(1))
	assert.Equal(t, 4*time.Second, client.backoffFor(2))
	assert.Equal(t, 8*time.Second, client.backoffFor(3))
	// 上限で頭打ちになる
	assert.Equal(t, 32*time.Second, client.backoffFor(10))
}

func TestGenerationError_Unwrap(t *testing.T) {
	cause := errors.New("backend down")
	err := &GenerationError{Attempts: 3, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "3回試行")
}
