package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_EnforcesInterval(t *testing.T) {
	l := NewLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiter_NilIsNoop(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_ZeroIntervalIsNoop(t *testing.T) {
	l := NewLimiter(0)
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := NewLimiter(time.Minute)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx))

	cancelCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(cancelCtx), context.DeadlineExceeded)
}
