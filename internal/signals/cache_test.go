package signals

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCacheLoadsOnce(t *testing.T) {
	rc := NewRequestCache()
	var calls int32
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return "payload", nil
	}

	for i := 0; i < 3; i++ {
		v, err := rc.Do("weather", load)
		require.NoError(t, err)
		assert.Equal(t, "payload", v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, rc.Len())
}

func TestRequestCacheSharesConcurrentLoads(t *testing.T) {
	rc := NewRequestCache()
	var calls int32
	release := make(chan struct{})
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := rc.Do("traffic", load)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRequestCacheMemoisesFailures(t *testing.T) {
	rc := NewRequestCache()
	upstreamErr := errors.New("upstream down")
	var calls int32
	load := func() (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, upstreamErr
	}

	_, err := rc.Do("events", load)
	assert.ErrorIs(t, err, upstreamErr)
	_, err = rc.Do("events", load)
	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRequestCacheKeysAreIndependent(t *testing.T) {
	rc := NewRequestCache()
	a, err := rc.Do("a", func() (any, error) { return "A", nil })
	require.NoError(t, err)
	b, err := rc.Do("b", func() (any, error) { return "B", nil })
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
	assert.Equal(t, 2, rc.Len())
}

func TestNilRequestCache(t *testing.T) {
	var rc *RequestCache
	var calls int
	load := func() (any, error) {
		calls++
		return calls, nil
	}

	v1, _ := rc.Do("k", load)
	v2, _ := rc.Do("k", load)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Zero(t, rc.Len())
}
