package service

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
)

// TokenClaims — идентичность, зашитая в токен сессии.
type TokenClaims struct {
	UsuarioID   int64
	Telefono    string
	TipoUsuario string
}

// TokenManager отвечает за выпуск и проверку JWT.
// Токен не хранится на сервере: валидность определяется подписью
// и зашитым сроком действия.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов с единым сроком жизни.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate выпускает подписанный токен для пользователя.
func (m *TokenManager) Generate(u *models.Usuario) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(u.ID, 10),
		"telefono": u.Telefono,
		"rol":      u.TipoUsuario,
		"iat":      now.Unix(),
		"exp":      now.Add(m.ttl).Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	return signed, nil
}

// Parse проверяет подпись и срок действия токена.
// Истёкший и невалидный токены различаются в ответе клиенту.
func (m *TokenManager) Parse(raw string) (*TokenClaims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeTokenInvalid, apperror.ErrTokenInvalid.Message)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperror.ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, apperror.ErrTokenInvalid
	}

	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, apperror.ErrTokenInvalid
	}

	telefono, _ := claims["telefono"].(string)
	rol, _ := claims["rol"].(string)

	return &TokenClaims{
		UsuarioID:   id,
		Telefono:    telefono,
		TipoUsuario: rol,
	}, nil
}
