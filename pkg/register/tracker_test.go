package register

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	release, ok := tracker.Begin("form-1")
	require.True(t, ok)
	assert.Contains(t, tracker.inflight, "form-1")

	_, ok = tracker.Begin("form-1")
	assert.False(t, ok)

	other, ok := tracker.Begin("form-2")
	require.True(t, ok)
	other()

	release()
	release()
	assert.NotContains(t, tracker.inflight, "form-1")

	_, ok = tracker.Begin("form-1")
	assert.True(t, ok)
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()
	var wins int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := tracker.Begin("same"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}
