package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/market-views/internal/common"
)

var _ TextExtractor = (*CachedExtractor)(nil)

// CachedExtractor memoizes another extractor keyed on content hash plus file name.
// Failures are not cached.
type CachedExtractor struct {
	next   TextExtractor
	cache  *cache.Cache
	logger *slog.Logger
}

func NewCachedExtractor(next TextExtractor, ttl time.Duration, logger *slog.Logger) *CachedExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedExtractor{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (c *CachedExtractor) Extract(ctx context.Context, doc Document) (TextResult, error) {
	key := doc.ContentHash() + "|" + doc.Name
	if v, ok := c.cache.Get(key); ok {
		res := v.(TextResult)
		res.Cached = true
		common.LoggerFromContext(ctx, c.logger).Debug("extract.cache.hit", "file", doc.Name)
		return res, nil
	}

	res, err := c.next.Extract(ctx, doc)
	if err != nil {
		return res, err
	}
	c.cache.SetDefault(key, res)
	return res, nil
}
