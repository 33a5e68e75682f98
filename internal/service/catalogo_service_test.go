package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
)

type mockCatalogoRepo struct {
	mock.Mock
}

func (m *mockCatalogoRepo) ListCategorias(ctx context.Context) ([]models.Categoria, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Categoria), args.Error(1)
}

func (m *mockCatalogoRepo) GetCategoria(ctx context.Context, id int64) (*models.Categoria, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Categoria), args.Error(1)
}

func (m *mockCatalogoRepo) ListPlatillos(ctx context.Context, categoriaID int64) ([]models.PlatilloConCategoria, error) {
	args := m.Called(ctx, categoriaID)
	return args.Get(0).([]models.PlatilloConCategoria), args.Error(1)
}

func (m *mockCatalogoRepo) GetPlatillo(ctx context.Context, id int64) (*models.Platillo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Platillo), args.Error(1)
}

func (m *mockCatalogoRepo) CreatePlatillo(ctx context.Context, p *models.Platillo) error {
	args := m.Called(ctx, p)
	if args.Error(0) == nil {
		p.ID = 1
	}
	return args.Error(0)
}

func (m *mockCatalogoRepo) SetPlatilloImagen(ctx context.Context, id int64, imagen string) error {
	args := m.Called(ctx, id, imagen)
	return args.Error(0)
}

func TestCatalogoService_ImagenURL(t *testing.T) {
	svc := NewCatalogoService(nil, nil, "http://localhost:3000/")

	imagen := "platillo_7_123.jpg"
	url := svc.ImagenURL(&imagen)
	assert.NotNil(t, url)
	assert.Equal(t, "http://localhost:3000/images/platillo_7_123.jpg", *url)

	// Без изображения URL не собирается.
	assert.Nil(t, svc.ImagenURL(nil))
	empty := ""
	assert.Nil(t, svc.ImagenURL(&empty))
}

func TestCatalogoService_GetPlatilloNotFound(t *testing.T) {
	repo := new(mockCatalogoRepo)
	svc := NewCatalogoService(repo, nil, "http://localhost:3000")
	ctx := context.Background()

	repo.On("GetPlatillo", ctx, int64(99)).Return(nil, repository.ErrPlatilloNotFound)

	_, err := svc.GetPlatillo(ctx, 99)
	assert.ErrorIs(t, err, apperror.ErrPlatilloNotFound)
}

func TestCatalogoService_ListPlatillosCached(t *testing.T) {
	repo := new(mockCatalogoRepo)
	cache := NewCacheService(context.Background())
	svc := NewCatalogoService(repo, cache, "http://localhost:3000")
	ctx := context.Background()

	repo.On("ListPlatillos", ctx, int64(0)).Return([]models.PlatilloConCategoria{
		{Platillo: models.Platillo{ID: 1, Nombre: "Taco de pescado"}},
	}, nil).Once()

	first, err := svc.ListPlatillos(ctx, 0)
	assert.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := svc.ListPlatillos(ctx, 0)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "ListPlatillos", 1)
}

func TestCatalogoService_CreatePlatilloValidation(t *testing.T) {
	repo := new(mockCatalogoRepo)
	svc := NewCatalogoService(repo, nil, "http://localhost:3000")
	ctx := context.Background()

	cases := []models.Platillo{
		{Nombre: "", Precio: 10, CategoriaID: 1},
		{Nombre: "Taco", Precio: 0, CategoriaID: 1},
		{Nombre: "Taco", Precio: 10, CategoriaID: 0},
	}

	for _, p := range cases {
		err := svc.CreatePlatillo(ctx, &p)
		assert.Error(t, err)
	}

	repo.AssertNotCalled(t, "CreatePlatillo")
}

func TestCatalogoService_CreatePlatilloUnknownCategoria(t *testing.T) {
	repo := new(mockCatalogoRepo)
	svc := NewCatalogoService(repo, nil, "http://localhost:3000")
	ctx := context.Background()

	repo.On("GetCategoria", ctx, int64(5)).Return(nil, repository.ErrCategoriaNotFound)

	err := svc.CreatePlatillo(ctx, &models.Platillo{Nombre: "Taco", Precio: 45, CategoriaID: 5})
	assert.ErrorIs(t, err, apperror.ErrCategoriaNotFound)
}

func TestCatalogoService_CreatePlatilloInvalidatesList(t *testing.T) {
	repo := new(mockCatalogoRepo)
	cache := NewCacheService(context.Background())
	svc := NewCatalogoService(repo, cache, "http://localhost:3000")
	ctx := context.Background()

	repo.On("ListPlatillos", ctx, int64(0)).Return([]models.PlatilloConCategoria{}, nil)
	repo.On("GetCategoria", ctx, int64(1)).Return(&models.Categoria{ID: 1, Nombre: "Tacos"}, nil)
	repo.On("CreatePlatillo", ctx, mock.AnythingOfType("*models.Platillo")).Return(nil)

	_, err := svc.ListPlatillos(ctx, 0)
	assert.NoError(t, err)

	err = svc.CreatePlatillo(ctx, &models.Platillo{Nombre: "Taco", Precio: 45, CategoriaID: 1})
	assert.NoError(t, err)

	// Создание блюда сбрасывает кэш списков.
	_, err = svc.ListPlatillos(ctx, 0)
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListPlatillos", 2)
}
