package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sidlawliet/whiteroom-mentor/internal/store"
)

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New wraps rdb. ttl <= 0 keeps records forever.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl < 0 {
		ttl = 0
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	return s.rdb.Set(ctx, key, data, s.ttl).Err()
}
