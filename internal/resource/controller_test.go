package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_Unlimited(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1<<40))
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
	c.ReleaseMemory(1 << 40)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_NilIsUnlimited(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquireMemory(10))
	c.ReleaseMemory(10)
	require.NoError(t, c.AcquireIO(context.Background(), 10))
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Two bursts: the first is available immediately, the second needs ~1s.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 2<<20))

	require.NoError(t, c.AcquireIO(context.Background(), 1024))
}
