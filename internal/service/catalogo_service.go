package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
)

// CatalogoRepo описывает зависимости сервиса каталога от слоя хранилища.
type CatalogoRepo interface {
	ListCategorias(ctx context.Context) ([]models.Categoria, error)
	GetCategoria(ctx context.Context, id int64) (*models.Categoria, error)
	ListPlatillos(ctx context.Context, categoriaID int64) ([]models.PlatilloConCategoria, error)
	GetPlatillo(ctx context.Context, id int64) (*models.Platillo, error)
	CreatePlatillo(ctx context.Context, p *models.Platillo) error
	SetPlatilloImagen(ctx context.Context, id int64, imagen string) error
}

const catalogoCacheTTL = 5 * time.Minute

// CatalogoService — чтение меню с кэшем и сборкой URL изображений.
type CatalogoService struct {
	repo    CatalogoRepo
	cache   *CacheService
	baseURL string
}

// NewCatalogoService создаёт сервис каталога.
func NewCatalogoService(repo CatalogoRepo, cache *CacheService, baseURL string) *CatalogoService {
	return &CatalogoService{
		repo:    repo,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ImagenURL собирает публичный URL изображения блюда.
func (s *CatalogoService) ImagenURL(imagen *string) *string {
	if imagen == nil || *imagen == "" {
		return nil
	}
	url := fmt.Sprintf("%s/images/%s", s.baseURL, *imagen)
	return &url
}

// ListCategorias возвращает все категории меню.
func (s *CatalogoService) ListCategorias(ctx context.Context) ([]models.Categoria, error) {
	key := CategoriasCacheKey()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if list, ok := cached.([]models.Categoria); ok {
				return list, nil
			}
		}
	}

	list, err := s.repo.ListCategorias(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.Set(key, list, catalogoCacheTTL)
	}

	return list, nil
}

// GetCategoria возвращает категорию по идентификатору.
func (s *CatalogoService) GetCategoria(ctx context.Context, id int64) (*models.Categoria, error) {
	c, err := s.repo.GetCategoria(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoriaNotFound) {
			return nil, apperror.ErrCategoriaNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}
	return c, nil
}

// ListPlatillos возвращает блюда с названием категории.
// categoriaID == 0 означает все категории.
func (s *CatalogoService) ListPlatillos(ctx context.Context, categoriaID int64) ([]models.PlatilloConCategoria, error) {
	key := PlatillosCacheKey(categoriaID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if list, ok := cached.([]models.PlatilloConCategoria); ok {
				return list, nil
			}
		}
	}

	list, err := s.repo.ListPlatillos(ctx, categoriaID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.Set(key, list, catalogoCacheTTL)
	}

	return list, nil
}

// GetPlatillo возвращает блюдо по идентификатору.
func (s *CatalogoService) GetPlatillo(ctx context.Context, id int64) (*models.Platillo, error) {
	key := PlatilloCacheKey(id)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if p, ok := cached.(*models.Platillo); ok {
				return p, nil
			}
		}
	}

	p, err := s.repo.GetPlatillo(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPlatilloNotFound) {
			return nil, apperror.ErrPlatilloNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.Set(key, p, catalogoCacheTTL)
	}

	return p, nil
}

// CreatePlatillo создаёт блюдо и сбрасывает кэш списков.
func (s *CatalogoService) CreatePlatillo(ctx context.Context, p *models.Platillo) error {
	if strings.TrimSpace(p.Nombre) == "" || p.Precio <= 0 || p.CategoriaID <= 0 {
		return apperror.New(apperror.ErrCodeValidation, "Faltan campos obligatorios")
	}

	if _, err := s.repo.GetCategoria(ctx, p.CategoriaID); err != nil {
		if errors.Is(err, repository.ErrCategoriaNotFound) {
			return apperror.ErrCategoriaNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if err := s.repo.CreatePlatillo(ctx, p); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.InvalidateByPrefix("platillos:")
	}

	return nil
}

// SetPlatilloImagen привязывает загруженное изображение к блюду.
func (s *CatalogoService) SetPlatilloImagen(ctx context.Context, id int64, imagen string) error {
	if err := s.repo.SetPlatilloImagen(ctx, id, imagen); err != nil {
		if errors.Is(err, repository.ErrPlatilloNotFound) {
			return apperror.ErrPlatilloNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if s.cache != nil {
		s.cache.InvalidatePlatillo(id)
	}

	return nil
}
