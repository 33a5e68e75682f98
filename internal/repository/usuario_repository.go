package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tacofish-app/tacofish-backend/internal/models"
)

// ErrUsuarioNotFound возвращается, когда запись пользователя не найдена.
var ErrUsuarioNotFound = errors.New("usuario not found")

// ErrTelefonoDuplicado возвращается при нарушении уникальности телефона.
// Уникальный индекс закрывает гонку между предварительной проверкой
// и вставкой: проигравший insert получает эту ошибку, а не второй аккаунт.
var ErrTelefonoDuplicado = errors.New("telefono already registered")

// Код ошибки PostgreSQL unique_violation.
const pgUniqueViolation = "23505"

// UsuarioRepository отвечает за работу с таблицей usuarios.
type UsuarioRepository struct {
	db *sqlx.DB
}

// NewUsuarioRepository создаёт экземпляр репозитория.
func NewUsuarioRepository(db *sqlx.DB) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UsuarioRepository) Create(ctx context.Context, u *models.Usuario) error {
	query := `
		INSERT INTO usuarios (nombre, telefono, password_hash, tipo_usuario)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		u.Nombre, u.Telefono, u.PasswordHash, u.TipoUsuario,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return ErrTelefonoDuplicado
		}
		return fmt.Errorf("usuario repository: create %w", err)
	}

	return nil
}

// GetByTelefono возвращает пользователя по каноническому телефону.
func (r *UsuarioRepository) GetByTelefono(ctx context.Context, telefono string) (*models.Usuario, error) {
	var u models.Usuario
	query := `
		SELECT id, nombre, telefono, password_hash, tipo_usuario, created_at
		FROM usuarios
		WHERE telefono = $1
	`
	if err := r.db.GetContext(ctx, &u, query, telefono); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUsuarioNotFound
		}
		return nil, fmt.Errorf("usuario repository: get by telefono %w", err)
	}

	return &u, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UsuarioRepository) GetByID(ctx context.Context, id int64) (*models.Usuario, error) {
	var u models.Usuario
	query := `
		SELECT id, nombre, telefono, password_hash, tipo_usuario, created_at
		FROM usuarios
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUsuarioNotFound
		}
		return nil, fmt.Errorf("usuario repository: get by id %w", err)
	}

	return &u, nil
}
