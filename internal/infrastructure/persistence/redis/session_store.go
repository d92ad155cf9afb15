package redis

import (
	"context"
	"errors"
	"time"

	"github.com/guidance-hub/career-guidance-hub/internal/domain/shared"
	"github.com/guidance-hub/career-guidance-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Bearer-token login sessions. Each session lives under its own key with
// a TTL; a per-student set indexes the tokens so a full logout can drop
// them all. The index carries the same TTL as the longest session.
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore implements student.SessionStore using Redis.
type SessionStore struct {
	cache *Cache
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(cache *Cache) *SessionStore {
	return &SessionStore{
		cache: cache,
	}
}

// Save stores a session with the given TTL.
func (s *SessionStore) Save(ctx context.Context, session student.Session, ttl time.Duration) error {
	if session.Token == "" {
		return ErrCacheKeyEmpty
	}
	if ttl <= 0 {
		ttl = TTLSessionData
	}

	if err := s.cache.Set(ctx, SessionKey(session.Token), session, ttl); err != nil {
		return err
	}

	indexKey := StudentSessionsKey(session.StudentID)
	if err := s.cache.SAdd(ctx, indexKey, session.Token); err != nil {
		return err
	}
	return s.cache.Expire(ctx, indexKey, ttl)
}

// Get returns the session for a token.
// Returns shared.ErrSessionNotFound for missing or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (student.Session, error) {
	if token == "" {
		return student.Session{}, shared.ErrSessionNotFound
	}

	var session student.Session
	err := s.cache.Get(ctx, SessionKey(token), &session)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return student.Session{}, shared.ErrSessionNotFound
		}
		return student.Session{}, err
	}

	// Redis TTL expiry is the primary mechanism; this guards against
	// clock drift between issuance and storage.
	if session.IsExpired(time.Now().UTC()) {
		_ = s.Delete(ctx, token)
		return student.Session{}, shared.ErrSessionNotFound
	}

	return session, nil
}

// Delete removes a session (logout).
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	var session student.Session
	if err := s.cache.Get(ctx, SessionKey(token), &session); err == nil {
		_ = s.cache.SRem(ctx, StudentSessionsKey(session.StudentID), token)
	}

	return s.cache.Delete(ctx, SessionKey(token))
}

// DeleteAllForStudent removes every session belonging to a student.
func (s *SessionStore) DeleteAllForStudent(ctx context.Context, studentID string) error {
	indexKey := StudentSessionsKey(studentID)

	tokens, err := s.cache.SMembers(ctx, indexKey)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, SessionKey(token))
	}
	keys = append(keys, indexKey)

	return s.cache.Delete(ctx, keys...)
}
