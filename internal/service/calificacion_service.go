package service

import (
	"context"
	"errors"
	"time"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
)

// CalificacionRepo описывает зависимости сервиса оценок от слоя хранилища.
type CalificacionRepo interface {
	Upsert(ctx context.Context, c *models.Calificacion) (bool, error)
	GetByUsuarioAndPlatillo(ctx context.Context, usuarioID, platilloID int64) (*models.Calificacion, error)
	ListByPlatillo(ctx context.Context, platilloID int64, limit, offset int) ([]models.Calificacion, error)
	GetResumen(ctx context.Context, platilloID int64) (*models.CalificacionResumen, error)
	Delete(ctx context.Context, usuarioID, platilloID int64) error
}

// PlatilloRepoForCalificacion нужен, чтобы не принимать оценки
// на несуществующие блюда.
type PlatilloRepoForCalificacion interface {
	GetPlatillo(ctx context.Context, id int64) (*models.Platillo, error)
}

const resumenCacheTTL = time.Minute

// CalificacionService — оценки блюд: upsert по паре (usuario, platillo),
// агрегат при чтении, инвалидация кэша при записи и удалении.
type CalificacionService struct {
	repo      CalificacionRepo
	platillos PlatilloRepoForCalificacion
	cache     *CacheService
}

// NewCalificacionService создаёт сервис оценок.
func NewCalificacionService(repo CalificacionRepo, platillos PlatilloRepoForCalificacion, cache *CacheService) *CalificacionService {
	return &CalificacionService{repo: repo, platillos: platillos, cache: cache}
}

// Calificar сохраняет оценку пользователя. Повторная отправка обновляет
// прежнюю запись, а не создаёт дубликат. Возвращает true при создании.
func (s *CalificacionService) Calificar(ctx context.Context, usuarioID, platilloID int64, valor int, comentario *string) (*models.Calificacion, bool, error) {
	if valor < 1 || valor > 5 {
		return nil, false, apperror.New(apperror.ErrCodeValidation, "La calificación debe estar entre 1 y 5")
	}

	if _, err := s.platillos.GetPlatillo(ctx, platilloID); err != nil {
		if errors.Is(err, repository.ErrPlatilloNotFound) {
			return nil, false, apperror.ErrPlatilloNotFound
		}
		return nil, false, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	c := &models.Calificacion{
		PlatilloID:   platilloID,
		UsuarioID:    usuarioID,
		Calificacion: valor,
		Comentario:   comentario,
	}

	created, err := s.repo.Upsert(ctx, c)
	if err != nil {
		return nil, false, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.InvalidatePlatillo(platilloID)
	}

	return c, created, nil
}

// Eliminar удаляет оценку. Средний балл пересчитается при следующем чтении.
func (s *CalificacionService) Eliminar(ctx context.Context, usuarioID, platilloID int64) error {
	if err := s.repo.Delete(ctx, usuarioID, platilloID); err != nil {
		if errors.Is(err, repository.ErrCalificacionNotFound) {
			return apperror.ErrCalificacionNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.InvalidatePlatillo(platilloID)
	}

	return nil
}

// Listar возвращает оценки блюда вместе с агрегатом.
func (s *CalificacionService) Listar(ctx context.Context, platilloID int64, limit, offset int) ([]models.Calificacion, *models.CalificacionResumen, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if _, err := s.platillos.GetPlatillo(ctx, platilloID); err != nil {
		if errors.Is(err, repository.ErrPlatilloNotFound) {
			return nil, nil, apperror.ErrPlatilloNotFound
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	list, err := s.repo.ListByPlatillo(ctx, platilloID, limit, offset)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	resumen, err := s.Resumen(ctx, platilloID)
	if err != nil {
		return nil, nil, err
	}

	return list, resumen, nil
}

// Resumen возвращает средний балл и количество оценок, с коротким кэшем.
func (s *CalificacionService) Resumen(ctx context.Context, platilloID int64) (*models.CalificacionResumen, error) {
	key := ResumenCacheKey(platilloID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if resumen, ok := cached.(*models.CalificacionResumen); ok {
				return resumen, nil
			}
		}
	}

	resumen, err := s.repo.GetResumen(ctx, platilloID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.Set(key, resumen, resumenCacheTTL)
	}

	return resumen, nil
}
