package redis

import (
	"context"
	"errors"
)

// ══════════════════════════════════════════════════════════════════════════════
// GUIDANCE CACHE
// Short-lived cache of generated guidance text, keyed by student and
// subject-set version. A version bump naturally misses, so revised
// subjects always get fresh guidance. Only successful generations are
// ever cached; marker-prefixed error strings never land here.
// ══════════════════════════════════════════════════════════════════════════════

// GuidanceCache caches generated guidance text.
type GuidanceCache struct {
	cache *Cache
}

// NewGuidanceCache creates a new GuidanceCache.
func NewGuidanceCache(cache *Cache) *GuidanceCache {
	return &GuidanceCache{
		cache: cache,
	}
}

// Get returns cached guidance text, or "" with ok=false on a miss.
func (g *GuidanceCache) Get(ctx context.Context, studentID string, subjectSetVersion int) (string, bool, error) {
	text, err := g.cache.GetString(ctx, GuidanceKey(studentID, subjectSetVersion))
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

// Set caches guidance text for a student's current subject-set version.
func (g *GuidanceCache) Set(ctx context.Context, studentID string, subjectSetVersion int, text string) error {
	if text == "" {
		return nil
	}
	return g.cache.SetString(ctx, GuidanceKey(studentID, subjectSetVersion), text, TTLGuidanceCache)
}

// Invalidate drops all cached guidance for a student.
func (g *GuidanceCache) Invalidate(ctx context.Context, studentID string) error {
	return g.cache.DeleteByPattern(ctx, PrefixGuidance+studentID+":*")
}
