package peaks

import (
	"context"
	"sync"

	"CutRoom/logger"
	"CutRoom/model"
)

// entry is one cache slot. It is inserted before the decode starts so that
// concurrent callers for the same key share a single in-flight operation.
type entry struct {
	done chan struct{}
	data model.PeaksData
	err  error
}

// Cache memoizes peak envelopes by (url, pointCount) for the lifetime of the
// process. GetPeaks is idempotent and safe to call concurrently for the same
// key; no two decodes of the same resource ever run simultaneously.
type Cache struct {
	mu        sync.Mutex
	entries   map[model.PeaksKey]*entry
	resolver  *Resolver
	extractor Extractor
}

// NewCache creates an empty cache over the given resolver and extractor.
func NewCache(resolver *Resolver, extractor Extractor) *Cache {
	return &Cache{
		entries:   make(map[model.PeaksKey]*entry),
		resolver:  resolver,
		extractor: extractor,
	}
}

// GetPeaks returns the envelope for (url, pointCount), decoding at most once
// per key. The decode runs detached from the caller's context: an in-flight
// decode completes and populates the cache even if the requesting caller has
// gone away, since the result stays useful process-wide. The caller's ctx
// only bounds how long this call waits.
func (c *Cache) GetPeaks(ctx context.Context, url string, pointCount int) (model.PeaksData, error) {
	key := model.PeaksKey{URL: url, PointCount: pointCount}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[key] = e
		go c.decode(key, e)
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.data, e.err
	case <-ctx.Done():
		return model.PeaksData{}, ctx.Err()
	}
}

// decode fills the entry and, on failure, evicts it so a later call can
// retry. A failed clip is a per-clip recoverable condition for callers.
func (c *Cache) decode(key model.PeaksKey, e *entry) {
	defer close(e.done)

	ctx := context.Background()
	localPath, cleanup, err := c.resolver.Resolve(ctx, key.URL)
	if err != nil {
		e.err = err
	} else {
		defer cleanup()
		e.data, e.err = c.extractor.Extract(ctx, localPath, key.PointCount)
	}

	if e.err != nil {
		logger.Warn("peak extraction failed",
			logger.String("url", key.URL),
			logger.Int("points", key.PointCount),
			logger.ErrorField(e.err))
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
}

// Len returns the number of resident entries, including in-flight ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

var (
	defaultCache *Cache
	defaultOnce  sync.Once
)

// Default returns the process-wide cache, creating it on first use with a
// plain resolver and the ffmpeg binary from PATH. Deployments that need
// object storage or a custom ffmpeg path construct their own Cache and pass
// it down instead.
func Default() *Cache {
	defaultOnce.Do(func() {
		defaultCache = NewCache(NewResolver(nil), NewFFmpegExtractor("ffmpeg"))
	})
	return defaultCache
}
