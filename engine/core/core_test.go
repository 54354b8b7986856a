package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFatalCallsExitHook(t *testing.T) {
	var code int
	prev := SetExitFunc(func(c int) { code = c })
	defer SetExitFunc(prev)

	LogFatal("ring overlap at %d", 42)
	assert.Equal(t, 1, code)
}

func TestSetLogLevelIgnoresUnknownNames(t *testing.T) {
	SetLogLevel("warn")
	assert.Equal(t, "warn", getLogger().GetLevel().String())

	SetLogLevel("loud")
	assert.Equal(t, "warn", getLogger().GetLevel().String())
	SetLogLevel("debug")
}

func TestIdentifierPoolReusesReleasedSlots(t *testing.T) {
	pool := NewIdentifierPool(4)

	a := pool.Acquire("a")
	b := pool.Acquire("b")
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)

	require.NoError(t, pool.Release(a))
	_, ok := pool.Owner(a)
	assert.False(t, ok)

	c := pool.Acquire("c")
	assert.Equal(t, a, c)
	owner, ok := pool.Owner(c)
	assert.True(t, ok)
	assert.Equal(t, "c", owner)

	assert.Error(t, pool.Release(10))
	require.NoError(t, pool.Release(b))
	assert.Error(t, pool.Release(b))
}

func TestClockElapsed(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	assert.Greater(t, c.Elapsed(), 0.0)

	c.Stop()
	elapsed := c.Elapsed()
	c.Update()
	assert.Equal(t, elapsed, c.Elapsed())
	assert.False(t, c.Running())
}

func TestMetricsAverages(t *testing.T) {
	require.NoError(t, MetricsInitialize())

	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsUpdate(0.016)
		MetricsRecordFlip(4 * time.Millisecond)
	}
	assert.InDelta(t, 16.0, MetricsFrameTime(), 0.001)
	assert.InDelta(t, 4.0, MetricsFlipTime(), 0.001)

	for i := 0; i < 70; i++ {
		MetricsUpdate(0.016)
	}
	assert.Greater(t, MetricsFPS(), 0.0)
}

func TestEventFireStopsAtFirstHandler(t *testing.T) {
	require.NoError(t, EventInitialize())
	defer EventShutdown()
	assert.ErrorIs(t, EventInitialize(), ErrAlreadyInitialized)

	var calls []string
	first, second := "first", "second"
	handler := func(handled bool) FnOnEvent {
		return func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
			calls = append(calls, listener.(string))
			return handled
		}
	}
	assert.True(t, EventRegister(EVENT_CODE_RESIZED, first, handler(false)))
	assert.True(t, EventRegister(EVENT_CODE_RESIZED, second, handler(true)))
	assert.False(t, EventRegister(EVENT_CODE_RESIZED, second, handler(true)))

	ctx := EventContext{}
	ctx.Data.U32[0], ctx.Data.U32[1] = 800, 600
	assert.True(t, EventFire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.True(t, EventUnregister(EVENT_CODE_RESIZED, second))
	assert.False(t, EventFire(EVENT_CODE_RESIZED, nil, ctx))
	assert.False(t, EventFire(EVENT_CODE_APPLICATION_QUIT, nil, ctx))
}
