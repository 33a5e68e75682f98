package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/phone"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
)

// AuthService инкапсулирует вход по телефону и проверку токена сессии.
type AuthService struct {
	usuarios  UsuarioRepo
	tokens    *TokenManager
	formatter *phone.Formatter
}

// LoginResult возвращает итог успешного входа.
type LoginResult struct {
	Token   string
	Usuario *models.Usuario
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(usuarios UsuarioRepo, tokens *TokenManager, formatter *phone.Formatter) *AuthService {
	return &AuthService{
		usuarios:  usuarios,
		tokens:    tokens,
		formatter: formatter,
	}
}

// Login проверяет телефон и пароль и выпускает токен.
// Незарегистрированный телефон и неверный пароль — разные ошибки,
// как в мобильном клиенте.
func (s *AuthService) Login(ctx context.Context, telefono, contrasena string) (*LoginResult, error) {
	if telefono == "" || contrasena == "" {
		return nil, apperror.ErrMissingFields
	}

	canonical, err := s.formatter.Format(telefono)
	if err != nil {
		return nil, err
	}

	usuario, err := s.usuarios.GetByTelefono(ctx, canonical)
	if err != nil {
		if errors.Is(err, repository.ErrUsuarioNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.PasswordHash), []byte(contrasena)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(usuario)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Usuario: usuario}, nil
}

// VerifyToken проверяет токен и возвращает актуального пользователя.
// Пользователь мог быть удалён после выпуска токена — тогда 404.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (*models.Usuario, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	usuario, err := s.usuarios.GetByID(ctx, claims.UsuarioID)
	if err != nil {
		if errors.Is(err, repository.ErrUsuarioNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	return usuario, nil
}
