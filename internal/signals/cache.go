package signals

import (
	"sync"

	"github.com/bluele/gcache"
)

// RequestCache memoises upstream payloads, failures included, for the lifetime of one
// composer invocation. Concurrent fetches of the same key share a single upstream call.
type RequestCache struct {
	mu      sync.Mutex
	loaders map[string]func() (any, error)
	cache   gcache.Cache
}

type cachedResult struct {
	value any
	err   error
}

// NewRequestCache creates an empty cache. Create one per request and drop it afterwards.
func NewRequestCache() *RequestCache {
	rc := &RequestCache{loaders: make(map[string]func() (any, error))}
	rc.cache = gcache.New(16).Simple().LoaderFunc(func(key interface{}) (interface{}, error) {
		rc.mu.Lock()
		load := rc.loaders[key.(string)]
		rc.mu.Unlock()
		if load == nil {
			return nil, gcache.KeyNotFoundError
		}
		value, err := load()
		return cachedResult{value: value, err: err}, nil
	}).Build()
	return rc
}

// Do returns the cached result for key, calling load on the first request for it.
// A nil cache calls load every time.
func (rc *RequestCache) Do(key string, load func() (any, error)) (any, error) {
	if rc == nil {
		return load()
	}

	rc.mu.Lock()
	if _, ok := rc.loaders[key]; !ok {
		rc.loaders[key] = load
	}
	rc.mu.Unlock()

	v, err := rc.cache.Get(key)
	if err != nil {
		return nil, err
	}
	result := v.(cachedResult)
	return result.value, result.err
}

// Len is the number of keys fetched so far.
func (rc *RequestCache) Len() int {
	if rc == nil {
		return 0
	}
	return rc.cache.Len(false)
}
