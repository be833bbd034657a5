package redissession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/gradeportal/core"
)

const keyPrefix = "gradeportal:session:"

// NewClient connects to redis and checks the connection.
func NewClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         conf.Redis.Addr,
		Password:     conf.Redis.Password,
		DB:           conf.Redis.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redis.Ping(%s)", conf.Redis.Addr)
	}
	return client, nil
}

// NewID returns a new opaque session id.
func NewID() string { return uuid.NewString() }

// ValidID reports whether `sid` looks like an id returned by NewID.
func ValidID(sid string) bool {
	_, err := uuid.Parse(sid)
	return err == nil
}

// Store keeps one session in a redis hash; every write refreshes its TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	mutex  sync.RWMutex
	key    string
}

func New(client *redis.Client, sid string, ttl time.Duration) *Store {
	return &Store{client: client, key: keyPrefix + sid, ttl: ttl}
}

func (s *Store) hashKey() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.key
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.hashKey(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "redis.HGet(%s)", key)
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	hkey := s.hashKey()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hkey, key, value)
		if s.ttl > 0 {
			pipe.Expire(ctx, hkey, s.ttl)
		}
		return nil
	})
	return errors.Wrapf(err, "redis.HSet(%s)", key)
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.client.HDel(ctx, s.hashKey(), keys...).Err(), "redis.HDel()")
}

// Rotate moves the session under a new id and returns it; the old id no longer resolves.
func (s *Store) Rotate(ctx context.Context) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sid := NewID()
	key := keyPrefix + sid
	// RENAME fails on a missing key: an empty session only needs the new id
	err := s.client.Rename(ctx, s.key, key).Err()
	if err != nil && !isNoSuchKey(err) {
		return "", errors.Wrap(err, "redis.Rename()")
	}
	s.key = key
	return sid, nil
}

func isNoSuchKey(err error) bool {
	return err != nil && err.Error() == "ERR no such key"
}
