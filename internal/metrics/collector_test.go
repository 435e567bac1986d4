package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTimings(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpHTTPRequest, 10*time.Millisecond)
	c.RecordTiming(OpHTTPRequest, 30*time.Millisecond)
	c.RecordError(OpHTTPRequest, 20*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.HTTPRequest)
	assert.Equal(t, int64(3), snap.HTTPRequest.Count)
	assert.Equal(t, int64(1), snap.HTTPRequest.Errors)
	assert.Equal(t, int64(60), snap.HTTPRequest.TotalTimeMs)
	assert.Equal(t, 20.0, snap.HTTPRequest.AvgTimeMs)
	assert.Equal(t, int64(10), snap.HTTPRequest.MinTimeMs)
	assert.Equal(t, int64(30), snap.HTTPRequest.MaxTimeMs)

	assert.Nil(t, snap.StoreQuery, "operations without data are omitted")
}

func TestCollectorCounters(t *testing.T) {
	c := NewCollector()
	c.Add(CounterActiveStreams, 1)
	c.Add(CounterActiveStreams, 1)
	c.Add(CounterActiveStreams, -1)
	c.Add(CounterTurnsCreated, 3)

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.ActiveStreams)
	assert.Equal(t, int64(3), snap.TurnsCreated)
	assert.Zero(t, snap.TurnsFailed)
}

func TestCollectorTimer(t *testing.T) {
	c := NewCollector()
	c.Timer(OpStoreQuery)(nil)
	c.Timer(OpStoreQuery)(errors.New("boom"))

	snap := c.Snapshot()
	require.NotNil(t, snap.StoreQuery)
	assert.Equal(t, int64(2), snap.StoreQuery.Count)
	assert.Equal(t, int64(1), snap.StoreQuery.Errors)
}

func TestCollectorConcurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTiming(OpTurnProcess, time.Millisecond)
			c.Add(CounterTurnsCompleted, 1)
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.TurnProcess.Count)
	assert.Equal(t, int64(50), snap.TurnsCompleted)
}
