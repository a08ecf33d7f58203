package generative

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateThrottler_AllowsUnderLimit(t *testing.T) {
	throttler := NewRateThrottler(WithRequestsPerMinute(5))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, throttler.Throttle(ctx, 100))
	}

	status := throttler.Status()
	assert.Equal(t, 5, status.WindowRequests)
	assert.Equal(t, 5, status.DailyRequests)
}

func TestRateThrottler_BlocksOverRequestLimit(t *testing.T) {
	throttler := NewRateThrottler(WithRequestsPerMinute(2))
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	require.NoError(t, throttler.Throttle(ctx, 100))

	// 上限到達後はウィンドウが空くまでブロックするため、タイムアウトで確認する
	timeoutCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	err := throttler.Throttle(timeoutCtx, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateThrottler_WindowExpiry(t *testing.T) {
	throttler := NewRateThrottler(WithRequestsPerMinute(2))
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	require.NoError(t, throttler.Throttle(ctx, 100))

	// 記録をウィンドウ外に移動させて期限切れを再現する
	throttler.mu.Lock()
	for i := range throttler.requests {
		throttler.requests[i] = throttler.requests[i].Add(-2 * time.Minute)
	}
	throttler.mu.Unlock()

	require.NoError(t, throttler.Throttle(ctx, 100))

	status := throttler.Status()
	assert.Equal(t, 1, status.WindowRequests)
	assert.Equal(t, 3, status.DailyRequests)
}

func TestRateThrottler_BlocksOverTokenLimit(t *testing.T) {
	throttler := NewRateThrottler(WithTokensPerMinute(1000))
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	throttler.RecordCall(900)

	// 残り予算100に対して推定200はブロックされる
	timeoutCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	err := throttler.Throttle(timeoutCtx, 200)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 予算内の呼び出しは通過する
	require.NoError(t, throttler.Throttle(ctx, 50))
}

func TestRateThrottler_TokenWindowExpiry(t *testing.T) {
	throttler := NewRateThrottler(WithTokensPerMinute(1000))
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	throttler.RecordCall(900)

	throttler.mu.Lock()
	for i := range throttler.tokenEntries {
		throttler.tokenEntries[i].at = throttler.tokenEntries[i].at.Add(-2 * time.Minute)
	}
	throttler.mu.Unlock()

	require.NoError(t, throttler.Throttle(ctx, 900))
	assert.Equal(t, 0, throttler.Status().WindowTokens)
}

func TestRateThrottler_BlocksOverDailyLimit(t *testing.T) {
	throttler := NewRateThrottler(
		WithRequestsPerMinute(10),
		WithMaxDailyRequests(2),
	)
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	require.NoError(t, throttler.Throttle(ctx, 100))

	timeoutCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	err := throttler.Throttle(timeoutCtx, 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateThrottler_DailyReset(t *testing.T) {
	throttler := NewRateThrottler(
		WithRequestsPerMinute(10),
		WithMaxDailyRequests(2),
	)
	ctx := context.Background()

	require.NoError(t, throttler.Throttle(ctx, 100))
	require.NoError(t, throttler.Throttle(ctx, 100))

	// リセット時刻を過去に移動させて日付跨ぎを再現する
	throttler.mu.Lock()
	throttler.dailyReset = time.Now().Add(-time.Second)
	// リクエストウィンドウもクリアしておく
	throttler.requests = nil
	throttler.mu.Unlock()

	require.NoError(t, throttler.Throttle(ctx, 100))

	status := throttler.Status()
	assert.Equal(t, 1, status.DailyRequests)
	assert.True(t, status.DailyReset.After(time.Now()))
}

func TestRateThrottler_ConcurrentReservation(t *testing.T) {
	throttler := NewRateThrottler(WithRequestsPerMinute(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, throttler.Throttle(ctx, 10))
		}()
	}
	wg.Wait()

	status := throttler.Status()
	assert.Equal(t, 50, status.WindowRequests)
	assert.Equal(t, 50, status.DailyRequests)
}

func TestThrottlerStatus_String(t *testing.T) {
	status := ThrottlerStatus{
		WindowRequests: 3,
		WindowTokens:   1200,
		DailyRequests:  42,
		DailyReset:     time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	s := status.String()
	assert.Contains(t, s, "windowRequests=3")
	assert.Contains(t, s, "windowTokens=1200")
	assert.Contains(t, s, "daily=42")
}

func TestNextMidnight(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 45, 0, time.UTC)
	midnight := nextMidnight(now)

	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), midnight)
}
