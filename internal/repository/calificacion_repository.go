package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tacofish-app/tacofish-backend/internal/models"
)

// ErrCalificacionNotFound возвращается, когда оценка не найдена.
var ErrCalificacionNotFound = errors.New("calificacion not found")

// CalificacionRepository отвечает за работу с таблицей calificaciones.
type CalificacionRepository struct {
	db *sqlx.DB
}

// NewCalificacionRepository создаёт экземпляр репозитория.
func NewCalificacionRepository(db *sqlx.DB) *CalificacionRepository {
	return &CalificacionRepository{db: db}
}

// Upsert создаёт оценку или обновляет существующую для пары
// (usuario, platillo). Возвращает true, если запись была создана.
func (r *CalificacionRepository) Upsert(ctx context.Context, c *models.Calificacion) (bool, error) {
	query := `
		INSERT INTO calificaciones (platillo_id, usuario_id, calificacion, comentario)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (usuario_id, platillo_id) DO UPDATE
		SET calificacion = EXCLUDED.calificacion,
			comentario = EXCLUDED.comentario,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (created_at = updated_at) AS inserted
	`

	var inserted bool
	if err := r.db.QueryRowxContext(
		ctx, query,
		c.PlatilloID, c.UsuarioID, c.Calificacion, c.Comentario,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &inserted); err != nil {
		return false, fmt.Errorf("calificacion repository: upsert %w", err)
	}

	return inserted, nil
}

// GetByUsuarioAndPlatillo возвращает оценку пользователя для блюда.
func (r *CalificacionRepository) GetByUsuarioAndPlatillo(ctx context.Context, usuarioID, platilloID int64) (*models.Calificacion, error) {
	var c models.Calificacion
	query := `
		SELECT id, platillo_id, usuario_id, calificacion, comentario, created_at, updated_at
		FROM calificaciones
		WHERE usuario_id = $1 AND platillo_id = $2
	`
	if err := r.db.GetContext(ctx, &c, query, usuarioID, platilloID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCalificacionNotFound
		}
		return nil, fmt.Errorf("calificacion repository: get by usuario and platillo %w", err)
	}

	return &c, nil
}

// ListByPlatillo возвращает оценки блюда, свежие первыми.
func (r *CalificacionRepository) ListByPlatillo(ctx context.Context, platilloID int64, limit, offset int) ([]models.Calificacion, error) {
	var list []models.Calificacion
	query := `
		SELECT id, platillo_id, usuario_id, calificacion, comentario, created_at, updated_at
		FROM calificaciones
		WHERE platillo_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &list, query, platilloID, limit, offset); err != nil {
		return nil, fmt.Errorf("calificacion repository: list by platillo %w", err)
	}

	return list, nil
}

// GetResumen считает средний балл и количество оценок при чтении.
// Агрегат не поддерживается инкрементально: после записи или удаления
// следующее чтение пересчитывает его заново.
func (r *CalificacionRepository) GetResumen(ctx context.Context, platilloID int64) (*models.CalificacionResumen, error) {
	var result struct {
		Promedio sql.NullFloat64 `db:"promedio"`
		Total    int             `db:"total"`
	}
	query := `
		SELECT COALESCE(AVG(calificacion), 0) AS promedio, COUNT(*) AS total
		FROM calificaciones
		WHERE platillo_id = $1
	`
	if err := r.db.GetContext(ctx, &result, query, platilloID); err != nil {
		return nil, fmt.Errorf("calificacion repository: get resumen %w", err)
	}

	return &models.CalificacionResumen{
		PlatilloID: platilloID,
		Promedio:   result.Promedio.Float64,
		Total:      result.Total,
	}, nil
}

// Delete удаляет оценку пользователя для блюда.
func (r *CalificacionRepository) Delete(ctx context.Context, usuarioID, platilloID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM calificaciones WHERE usuario_id = $1 AND platillo_id = $2`,
		usuarioID, platilloID,
	)
	if err != nil {
		return fmt.Errorf("calificacion repository: delete %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("calificacion repository: delete rows affected %w", err)
	}
	if rows == 0 {
		return ErrCalificacionNotFound
	}

	return nil
}
