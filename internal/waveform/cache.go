package waveform

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/seismo-go/internal/logger"
)

// CachedLoader keeps decoded files in memory for a short time. A file is
// decoded once even when the scan asks for both a preprocessed and an
// untouched copy of the archive. Callers always receive deep copies since
// preprocessing filters in place.
type CachedLoader struct {
	next  Loader
	cache *cache.Cache
}

// NewCachedLoader wraps next. Entries expire after ttl. No janitor goroutine
// is started, expired entries are purged by Forget.
func NewCachedLoader(next Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		next:  next,
		cache: cache.New(ttl, 0),
	}
}

func (c *CachedLoader) Load(ctx context.Context, ref FileRef) ([]*Stream, error) {
	key := c.key(ref)
	if cached, ok := c.cache.Get(key); ok {
		if streams, ok := cached.([]*Stream); ok {
			GetLogger().Trace("decoded file cache hit", logger.String("file", ref.Path))
			return CloneStreams(streams), nil
		}
	}

	streams, err := c.next.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, streams)
	return CloneStreams(streams), nil
}

// Forget drops all cached files of an archive once it has been scanned.
func (c *CachedLoader) Forget(archive Archive) {
	for _, ref := range archive.Files {
		c.cache.Delete(c.key(ref))
	}
	c.cache.DeleteExpired()
}

// Len returns the number of cached files.
func (c *CachedLoader) Len() int {
	return c.cache.ItemCount()
}

// key includes size and mtime so a rewritten file is decoded again.
func (c *CachedLoader) key(ref FileRef) string {
	key := ref.Path + "|" + ref.Start.Format(time.RFC3339Nano)
	if info, err := os.Stat(ref.Path); err == nil {
		key += "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	}
	return key
}
