package verification

import (
	"context"
	"sync"
	"time"

	"github.com/tacofish-app/tacofish-backend/internal/goroutine"
)

// MemoryStore хранит ожидающие регистрации в памяти процесса.
// Подходит для одного инстанса; для нескольких используется RedisStore.
type MemoryStore struct {
	mu          sync.Mutex
	pending     map[string]*Pending
	ttl         time.Duration
	maxAttempts int
	maxPending  int
}

// NewMemoryStore создаёт хранилище с заданным TTL и лимитами.
func NewMemoryStore(ttl time.Duration, maxAttempts, maxPending int) *MemoryStore {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &MemoryStore{
		pending:     make(map[string]*Pending),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		maxPending:  maxPending,
	}
}

// Put сохраняет запись, перезаписывая существующую для того же телефона.
// Лимит на общее число записей защищает от неограниченного роста
// брошенных регистраций.
func (s *MemoryStore) Put(ctx context.Context, telefono string, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pending[telefono]; !exists && s.maxPending > 0 && len(s.pending) >= s.maxPending {
		// Сначала пробуем освободить место от протухших записей.
		s.sweepLocked(time.Now())
		if len(s.pending) >= s.maxPending {
			return ErrStoreFull
		}
	}

	cp := p
	cp.Attempts = 0
	s.pending[telefono] = &cp
	return nil
}

// Consume атомарно проверяет код: совпадение удаляет запись и возвращает её,
// истечение срока удаляет запись, неверный код увеличивает счётчик попыток.
func (s *MemoryStore) Consume(ctx context.Context, telefono, code string, now time.Time) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[telefono]
	if !ok {
		return nil, ErrNoPending
	}

	if now.Sub(rec.IssuedAt) > s.ttl {
		delete(s.pending, telefono)
		return nil, ErrExpired
	}

	if rec.Code != code {
		rec.Attempts++
		if rec.Attempts >= s.maxAttempts {
			delete(s.pending, telefono)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrCodeMismatch
	}

	delete(s.pending, telefono)
	cp := *rec
	return &cp, nil
}

// Delete удаляет запись, если она есть.
func (s *MemoryStore) Delete(ctx context.Context, telefono string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, telefono)
	return nil
}

// Sweep удаляет все протухшие записи и возвращает их количество.
func (s *MemoryStore) Sweep(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for telefono, rec := range s.pending {
		if now.Sub(rec.IssuedAt) > s.ttl {
			delete(s.pending, telefono)
			removed++
		}
	}
	return removed
}

// Len возвращает текущее число ожидающих записей.
func (s *MemoryStore) Len(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StartSweeper запускает фоновую очистку протухших записей.
// Останавливается по отмене контекста.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(ctx, now)
			}
		}
	})
}
