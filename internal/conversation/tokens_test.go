package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktokenCounterDoesNotWaitForStalledLoad(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	tc := newTiktokenCounter(func() (*tiktoken.Tiktoken, error) {
		<-release
		return nil, errors.New("unreachable")
	})

	got := make(chan int, 1)
	go func() { got <- tc.Count("hello world!") }()
	select {
	case n := <-got:
		assert.Equal(t, HeuristicCounter{}.Count("hello world!"), n)
	case <-time.After(time.Second):
		t.Fatal("Count blocked on the encoding load")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.False(t, tc.Warm(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestTiktokenCounterFallsBackOnLoadError(t *testing.T) {
	tc := newTiktokenCounter(func() (*tiktoken.Tiktoken, error) {
		return nil, errors.New("no network")
	})
	require.False(t, tc.Warm(context.Background()))
	assert.Equal(t, 3, tc.Count("abcdefghij"))
	assert.Zero(t, tc.Count(""))
}
