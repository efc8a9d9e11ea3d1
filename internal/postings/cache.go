package postings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/cache"
)

// CachedSource serves repeated queries from a cache and falls through to the wrapped source on miss.
type CachedSource struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSource(source Source, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger.With(zap.String("source", source.Name())),
	}
}

func (s *CachedSource) Name() string {
	return s.source.Name()
}

func (s *CachedSource) FetchPostings(ctx context.Context, q Query) ([]Posting, error) {
	q = q.WithDefaults()
	key := CacheKey(s.source.Name(), q)

	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var items []Posting
		if err := json.Unmarshal(raw, &items); err == nil {
			s.logger.Debug("postings served from cache", zap.String("key", key), zap.Int("count", len(items)))
			return items, nil
		}
		s.logger.Warn("cached postings are corrupted, refetching", zap.String("key", key))
	case errors.Is(err, cache.ErrNotFound):
	default:
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	items, err := s.source.FetchPostings(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return items, nil
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("failed to store postings in cache", zap.String("key", key), zap.Error(err))
	}

	return items, nil
}

// CacheKey builds a stable key for a source and query.
func CacheKey(source string, q Query) string {
	return fmt.Sprintf("postings:%s:%s:%s:%d:%d",
		source,
		strings.ToLower(strings.TrimSpace(q.Text)),
		strings.ToLower(strings.TrimSpace(q.Location)),
		q.MaxResults,
		int64(q.MaxAge/time.Hour),
	)
}
