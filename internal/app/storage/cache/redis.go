// Package cache provides a redis-backed read-through cache in front of a
// SubjectStore.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/grading_system/internal/app/domain/subject"
	"github.com/R3E-Network/grading_system/internal/app/storage"
	"github.com/R3E-Network/grading_system/pkg/logger"
)

const keyPrefix = "grading:subject:"

// Client is the subset of the redis client used by the cache.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ Client = (*redis.Client)(nil)

// Store caches single-subject lookups. Saves write through to the cache and
// misses fill with SETNX, so a read that raced a save never replaces the newer
// entry.
type Store struct {
	next   storage.SubjectStore
	client Client
	ttl    time.Duration
	log    *logger.Logger
}

var _ storage.SubjectStore = (*Store)(nil)

// New wraps next with a redis cache. A non-positive ttl defaults to five minutes.
func New(next storage.SubjectStore, client Client, ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.NewDefault("subject-cache")
	}
	return &Store{next: next, client: client, ttl: ttl, log: log}
}

// NewClient builds a redis client for addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (s *Store) SaveSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	saved, err := s.next.SaveSubject(ctx, subj)
	if err != nil {
		return subject.Subject{}, err
	}
	payload, err := json.Marshal(saved)
	if err != nil {
		s.evict(ctx, saved.ID)
		return saved, nil
	}
	if err := s.client.Set(ctx, cacheKey(saved.ID), payload, s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("subject_id", saved.ID).Warn("subject cache write failed")
		s.evict(ctx, saved.ID)
	}
	return saved, nil
}

func (s *Store) GetSubject(ctx context.Context, id int64) (subject.Subject, error) {
	raw, err := s.client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var subj subject.Subject
		if jsonErr := json.Unmarshal(raw, &subj); jsonErr == nil {
			return subj, nil
		}
		s.log.WithField("subject_id", id).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		s.log.WithError(err).WithField("subject_id", id).Warn("subject cache read failed")
	}

	subj, err := s.next.GetSubject(ctx, id)
	if err != nil {
		return subject.Subject{}, err
	}

	payload, err := json.Marshal(subj)
	if err != nil {
		return subj, nil
	}
	if err := s.client.SetNX(ctx, cacheKey(id), payload, s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("subject_id", id).Warn("subject cache fill failed")
	}
	return subj, nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]subject.Subject, error) {
	return s.next.ListSubjects(ctx)
}

func (s *Store) SubjectExists(ctx context.Context, id int64) (bool, error) {
	return s.next.SubjectExists(ctx, id)
}

func (s *Store) DeleteSubject(ctx context.Context, id int64) error {
	if err := s.next.DeleteSubject(ctx, id); err != nil {
		return err
	}
	s.evict(ctx, id)
	return nil
}

func (s *Store) evict(ctx context.Context, id int64) {
	if err := s.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		s.log.WithError(err).WithField("subject_id", id).Warn("subject cache eviction failed")
	}
}

func cacheKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}
