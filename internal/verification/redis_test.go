package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, 5*time.Minute, 3), mr
}

func TestRedisStore_ConsumeSuccess(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now()

	err := store.Put(ctx, "+525512345678", Pending{
		Code:          "123456",
		Nombre:        "Ana",
		PasswordPlain: "secreta",
		IssuedAt:      issued,
	})
	if err != nil {
		t.Fatalf("Put вернул ошибку: %v", err)
	}

	rec, err := store.Consume(ctx, "+525512345678", "123456", issued.Add(time.Minute))
	if err != nil {
		t.Fatalf("Consume вернул ошибку: %v", err)
	}
	if rec.Nombre != "Ana" || rec.PasswordPlain != "secreta" {
		t.Fatalf("Consume вернул не ту запись: %+v", rec)
	}

	if _, err := store.Consume(ctx, "+525512345678", "123456", issued.Add(time.Minute)); !errors.Is(err, ErrNoPending) {
		t.Fatalf("ожидали ErrNoPending при повторе, получили %v", err)
	}
}

func TestRedisStore_ConsumeExpired(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now()

	_ = store.Put(ctx, "+525512345678", Pending{Code: "123456", IssuedAt: issued})

	if _, err := store.Consume(ctx, "+525512345678", "123456", issued.Add(5*time.Minute+time.Second)); !errors.Is(err, ErrExpired) {
		t.Fatalf("ожидали ErrExpired, получили %v", err)
	}

	if _, err := store.Consume(ctx, "+525512345678", "123456", issued); !errors.Is(err, ErrNoPending) {
		t.Fatalf("запись должна быть удалена после истечения, получили %v", err)
	}
}

func TestRedisStore_KeyTTL(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "+525512345678", Pending{Code: "123456", IssuedAt: time.Now()})

	// Redis сам удаляет ключ по TTL, без участия Sweep.
	mr.FastForward(6 * time.Minute)

	if _, err := store.Consume(ctx, "+525512345678", "123456", time.Now()); !errors.Is(err, ErrNoPending) {
		t.Fatalf("ожидали ErrNoPending после TTL, получили %v", err)
	}
}

func TestRedisStore_AttemptLimit(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now()

	_ = store.Put(ctx, "+525512345678", Pending{Code: "123456", IssuedAt: issued})

	for i := 0; i < 2; i++ {
		if _, err := store.Consume(ctx, "+525512345678", "999999", issued); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("попытка %d: ожидали ErrCodeMismatch, получили %v", i+1, err)
		}
	}

	if _, err := store.Consume(ctx, "+525512345678", "999999", issued); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("ожидали ErrTooManyAttempts, получили %v", err)
	}

	if _, err := store.Consume(ctx, "+525512345678", "123456", issued); !errors.Is(err, ErrNoPending) {
		t.Fatalf("ожидали ErrNoPending после исчерпания попыток, получили %v", err)
	}
}

func TestRedisStore_PutResetsAttempts(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now()

	_ = store.Put(ctx, "+525512345678", Pending{Code: "111111", IssuedAt: issued})
	_, _ = store.Consume(ctx, "+525512345678", "999999", issued)
	_, _ = store.Consume(ctx, "+525512345678", "999999", issued)

	_ = store.Put(ctx, "+525512345678", Pending{Code: "222222", IssuedAt: issued})

	for i := 0; i < 2; i++ {
		if _, err := store.Consume(ctx, "+525512345678", "999999", issued); !errors.Is(err, ErrCodeMismatch) {
			t.Fatalf("после перезаписи ожидали ErrCodeMismatch, получили %v", err)
		}
	}
}

func TestRedisStore_Len(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Now()

	if store.Len(ctx) != 0 {
		t.Fatalf("пустое хранилище должно возвращать 0")
	}

	_ = store.Put(ctx, "+525500000001", Pending{Code: "111111", IssuedAt: issued})
	_ = store.Put(ctx, "+525500000002", Pending{Code: "222222", IssuedAt: issued})

	if got := store.Len(ctx); got != 2 {
		t.Fatalf("ожидали 2 записи, получили %d", got)
	}

	_ = store.Delete(ctx, "+525500000001")
	if got := store.Len(ctx); got != 1 {
		t.Fatalf("ожидали 1 запись после Delete, получили %d", got)
	}
}
