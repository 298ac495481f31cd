package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterNeverBlocks(t *testing.T) {
	l := New("upstream", 0)
	require.Nil(t, l)

	assert.NoError(t, l.Wait(context.Background()))
	assert.True(t, l.Allow())
	assert.Equal(t, "unlimited", l.Name())
}

func TestLimiterBurst(t *testing.T) {
	l := New("upstream", 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
	assert.Equal(t, "upstream", l.Name())
}

func TestLimiterWaitHonoursContext(t *testing.T) {
	l := New("upstream", 1)
	require.True(t, l.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait for upstream")
}
