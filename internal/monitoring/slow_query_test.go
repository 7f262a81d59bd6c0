package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlowQueryLoggerThresholdAndRing(t *testing.T) {
	l := NewSlowQueryLogger(50*time.Millisecond, 2)
	now := time.Now()

	assert.False(t, l.Observe("get_message", "", now, 10*time.Millisecond))
	assert.True(t, l.Observe("get_message", "a", now, 60*time.Millisecond))
	assert.True(t, l.Observe("list_history", "b", now, 70*time.Millisecond))
	assert.True(t, l.Observe("list_history", "c", now, 80*time.Millisecond))

	recent := l.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Details)
	assert.Equal(t, "c", recent[1].Details)

	last := l.Recent(1)
	require.Len(t, last, 1)
	assert.Equal(t, 80*time.Millisecond, last[0].Duration)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "3xx", StatusClass(304))
	assert.Equal(t, "4xx", StatusClass(404))
	assert.Equal(t, "5xx", StatusClass(502))
	assert.Equal(t, "1xx", StatusClass(0))
}
