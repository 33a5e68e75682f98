package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tacofish-app/tacofish-backend/internal/models"
)

// Ошибки каталога.
var (
	ErrCategoriaNotFound = errors.New("categoria not found")
	ErrPlatilloNotFound  = errors.New("platillo not found")
)

// CatalogoRepository отвечает за таблицы categoria и platillo.
type CatalogoRepository struct {
	db *sqlx.DB
}

// NewCatalogoRepository создаёт экземпляр репозитория.
func NewCatalogoRepository(db *sqlx.DB) *CatalogoRepository {
	return &CatalogoRepository{db: db}
}

// ListCategorias возвращает все категории меню.
func (r *CatalogoRepository) ListCategorias(ctx context.Context) ([]models.Categoria, error) {
	var list []models.Categoria
	if err := r.db.SelectContext(ctx, &list, `SELECT id, nombre, created_at FROM categoria ORDER BY id`); err != nil {
		return nil, fmt.Errorf("catalogo repository: list categorias %w", err)
	}
	return list, nil
}

// GetCategoria возвращает категорию по идентификатору.
func (r *CatalogoRepository) GetCategoria(ctx context.Context, id int64) (*models.Categoria, error) {
	var c models.Categoria
	if err := r.db.GetContext(ctx, &c, `SELECT id, nombre, created_at FROM categoria WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoriaNotFound
		}
		return nil, fmt.Errorf("catalogo repository: get categoria %w", err)
	}
	return &c, nil
}

// ListPlatillos возвращает блюда вместе с названием категории.
// categoriaID == 0 означает все категории.
func (r *CatalogoRepository) ListPlatillos(ctx context.Context, categoriaID int64) ([]models.PlatilloConCategoria, error) {
	query := `
		SELECT p.id, p.nombre, p.descripcion, p.precio, p.categoria_id, p.imagen, p.created_at,
			c.nombre AS categoria_nombre
		FROM platillo p
		JOIN categoria c ON p.categoria_id = c.id
	`
	args := []interface{}{}
	if categoriaID > 0 {
		query += ` WHERE p.categoria_id = $1`
		args = append(args, categoriaID)
	}
	query += ` ORDER BY p.id`

	var list []models.PlatilloConCategoria
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("catalogo repository: list platillos %w", err)
	}
	return list, nil
}

// GetPlatillo возвращает блюдо по идентификатору.
func (r *CatalogoRepository) GetPlatillo(ctx context.Context, id int64) (*models.Platillo, error) {
	var p models.Platillo
	query := `
		SELECT id, nombre, descripcion, precio, categoria_id, imagen, created_at
		FROM platillo
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlatilloNotFound
		}
		return nil, fmt.Errorf("catalogo repository: get platillo %w", err)
	}
	return &p, nil
}

// CreatePlatillo создаёт блюдо.
func (r *CatalogoRepository) CreatePlatillo(ctx context.Context, p *models.Platillo) error {
	query := `
		INSERT INTO platillo (nombre, descripcion, precio, categoria_id, imagen)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		p.Nombre, p.Descripcion, p.Precio, p.CategoriaID, p.Imagen,
	).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("catalogo repository: create platillo %w", err)
	}
	return nil
}

// SetPlatilloImagen обновляет имя файла изображения блюда.
func (r *CatalogoRepository) SetPlatilloImagen(ctx context.Context, id int64, imagen string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE platillo SET imagen = $2 WHERE id = $1`, id, imagen)
	if err != nil {
		return fmt.Errorf("catalogo repository: set platillo imagen %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalogo repository: set platillo imagen rows affected %w", err)
	}
	if rows == 0 {
		return ErrPlatilloNotFound
	}

	return nil
}
