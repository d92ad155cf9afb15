package redis

import (
	"context"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// StudentCache implements student.Cache using the generic Redis Cache.
type StudentCache struct {
	cache *Cache
}

// NewStudentCache creates a new StudentCache.
func NewStudentCache(cache *Cache) *StudentCache {
	return &StudentCache{
		cache: cache,
	}
}

// Get gets a student profile from cache.
// Returns ErrCacheMiss if the profile is not cached.
func (s *StudentCache) Get(ctx context.Context, studentID string) (*student.Student, error) {
	var st student.Student
	if err := s.cache.Get(ctx, StudentKey(studentID), &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Set stores a student profile in cache.
func (s *StudentCache) Set(ctx context.Context, st *student.Student, ttl time.Duration) error {
	if st == nil {
		return nil
	}
	return s.cache.Set(ctx, StudentKey(st.ID), st, ttl)
}

// Invalidate removes a student's cache entries. Guidance text derived
// from the profile goes stale with it, so those keys are dropped too.
func (s *StudentCache) Invalidate(ctx context.Context, studentID string) error {
	if err := s.cache.Delete(ctx, StudentKey(studentID)); err != nil {
		return err
	}
	return s.cache.DeleteByPattern(ctx, PrefixGuidance+studentID+":*")
}

// InvalidateAll clears the whole student cache.
func (s *StudentCache) InvalidateAll(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, PrefixStudent+"*")
}
