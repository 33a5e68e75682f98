package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tacofish:pending:"

// RedisStore хранит ожидающие регистрации в Redis и позволяет нескольким
// инстансам делить одно состояние. TTL обеспечивается самим Redis,
// атомарность Consume — транзакцией с WATCH.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewRedisStore создаёт хранилище поверх готового клиента.
func NewRedisStore(client *redis.Client, ttl time.Duration, maxAttempts int) *RedisStore {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RedisStore{client: client, ttl: ttl, maxAttempts: maxAttempts}
}

func redisKey(telefono string) string {
	return redisKeyPrefix + telefono
}

// Put сохраняет запись с TTL, перезаписывая существующую.
func (s *RedisStore) Put(ctx context.Context, telefono string, p Pending) error {
	p.Attempts = 0
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("verification: marshal pending: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(telefono), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("verification: redis set: %w", err)
	}
	return nil
}

// Consume атомарно проверяет и удаляет запись. WATCH гарантирует, что
// параллельный Consume того же телефона не использует код дважды:
// проигравшая транзакция перезапускается и уже не находит запись.
func (s *RedisStore) Consume(ctx context.Context, telefono, code string, now time.Time) (*Pending, error) {
	key := redisKey(telefono)

	var result *Pending
	var consumeErr error

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			consumeErr = ErrNoPending
			return nil
		}
		if err != nil {
			return fmt.Errorf("verification: redis get: %w", err)
		}

		var rec Pending
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("verification: unmarshal pending: %w", err)
		}

		if now.Sub(rec.IssuedAt) > s.ttl {
			consumeErr = ErrExpired
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}

		if rec.Code != code {
			rec.Attempts++
			if rec.Attempts >= s.maxAttempts {
				consumeErr = ErrTooManyAttempts
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			consumeErr = ErrCodeMismatch
			updated, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("verification: marshal pending: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}

		result = &rec
		return nil
	}

	// Несколько повторов на случай гонки за один ключ.
	for i := 0; i < 5; i++ {
		consumeErr = nil
		result = nil
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if consumeErr != nil {
			return nil, consumeErr
		}
		return result, nil
	}

	return nil, ErrNoPending
}

// Delete удаляет запись.
func (s *RedisStore) Delete(ctx context.Context, telefono string) error {
	if err := s.client.Del(ctx, redisKey(telefono)).Err(); err != nil {
		return fmt.Errorf("verification: redis del: %w", err)
	}
	return nil
}

// Sweep не требуется: Redis удаляет ключи по TTL самостоятельно.
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) int {
	return 0
}

// Len возвращает число ожидающих записей (для метрик и тестов).
func (s *RedisStore) Len(ctx context.Context) int {
	var count int
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}
