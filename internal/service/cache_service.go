package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tacofish-app/tacofish-backend/internal/goroutine"
)

// CacheService — кэш в памяти с TTL для чтений каталога и агрегатов оценок.
// Запись оценки или блюда инвалидирует списки и карточку блюда,
// чтобы средний балл не отставал от последней записи.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кэш и запускает фоновую очистку.
func NewCacheService(ctx context.Context) *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}

	goroutine.SafeGoWithContext(ctx, cs.cleanup)

	return cs
}

// Get возвращает значение, если оно есть и не протухло.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiresAt) {
		// Удалением займётся cleanup.
		return nil, false
	}

	return entry.data, true
}

// Set сохраняет значение с TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete удаляет ключ.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix удаляет все ключи с заданным префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// InvalidatePlatillo сбрасывает карточку блюда, его оценки и все списки,
// где блюдо могло показаться.
func (cs *CacheService) InvalidatePlatillo(platilloID int64) {
	id := strconv.FormatInt(platilloID, 10)
	cs.InvalidateByPrefix("platillo:" + id)
	cs.InvalidateByPrefix("calificaciones:" + id)
	cs.InvalidateByPrefix("platillos:")
}

// cleanup периодически удаляет протухшие записи.
func (cs *CacheService) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cs.mu.Lock()
			for key, entry := range cs.cache {
				if now.After(entry.expiresAt) {
					delete(cs.cache, key)
				}
			}
			cs.mu.Unlock()
		}
	}
}

// Генераторы ключей кэша.

func PlatilloCacheKey(id int64) string {
	return "platillo:" + strconv.FormatInt(id, 10)
}

func PlatillosCacheKey(categoriaID int64) string {
	return "platillos:" + strconv.FormatInt(categoriaID, 10)
}

func CategoriasCacheKey() string {
	return "categorias:all"
}

func ResumenCacheKey(platilloID int64) string {
	return "calificaciones:" + strconv.FormatInt(platilloID, 10) + ":resumen"
}
