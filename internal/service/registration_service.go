package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tacofish-app/tacofish-backend/internal/logger"
	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/phone"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
	"github.com/tacofish-app/tacofish-backend/internal/sms"
	"github.com/tacofish-app/tacofish-backend/internal/verification"
)

// UsuarioRepo описывает зависимости сервисов от слоя хранилища пользователей.
type UsuarioRepo interface {
	Create(ctx context.Context, u *models.Usuario) error
	GetByTelefono(ctx context.Context, telefono string) (*models.Usuario, error)
	GetByID(ctx context.Context, id int64) (*models.Usuario, error)
}

// RegistrationService оркестрирует регистрацию с подтверждением телефона:
// форматирование, проверку дубликата, генерацию кода, отправку SMS,
// хранение ожидающей записи и — отдельным вызовом — проверку кода
// с созданием пользователя и выпуском токена.
type RegistrationService struct {
	usuarios   UsuarioRepo
	store      verification.Store
	dispatcher sms.Dispatcher
	tokens     *TokenManager
	formatter  *phone.Formatter
	smsTimeout time.Duration
}

// IniciarInput содержит данные формы регистрации.
type IniciarInput struct {
	Nombre              string
	Telefono            string
	Contrasena          string
	ConfirmarContrasena string
}

// VerificarResult возвращает итог успешной верификации.
type VerificarResult struct {
	Token   string
	Usuario *models.Usuario
}

// NewRegistrationService создаёт сервис регистрации.
func NewRegistrationService(
	usuarios UsuarioRepo,
	store verification.Store,
	dispatcher sms.Dispatcher,
	tokens *TokenManager,
	formatter *phone.Formatter,
	smsTimeout time.Duration,
) *RegistrationService {
	return &RegistrationService{
		usuarios:   usuarios,
		store:      store,
		dispatcher: dispatcher,
		tokens:     tokens,
		formatter:  formatter,
		smsTimeout: smsTimeout,
	}
}

// Iniciar начинает регистрацию: проверяет поля, отправляет код по SMS
// и сохраняет ожидающую запись. Пользователь на этом шаге не создаётся.
// При ошибке отправки состояние не меняется.
func (s *RegistrationService) Iniciar(ctx context.Context, in IniciarInput) (string, error) {
	if strings.TrimSpace(in.Nombre) == "" ||
		strings.TrimSpace(in.Telefono) == "" ||
		in.Contrasena == "" ||
		in.ConfirmarContrasena == "" {
		return "", apperror.ErrMissingFields
	}

	if in.Contrasena != in.ConfirmarContrasena {
		return "", apperror.ErrPasswordMismatch
	}

	telefono, err := s.formatter.Format(in.Telefono)
	if err != nil {
		return "", err
	}

	// Предварительная проверка даёт понятную ошибку; гонку двух
	// одновременных регистраций закрывает уникальный индекс при вставке.
	if _, err := s.usuarios.GetByTelefono(ctx, telefono); err == nil {
		return "", apperror.ErrDuplicatePhone
	} else if !errors.Is(err, repository.ErrUsuarioNotFound) {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	code, err := generateCode()
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	smsCtx, cancel := context.WithTimeout(ctx, s.smsTimeout)
	defer cancel()

	body := fmt.Sprintf("Tu código de verificación es: %s", code)
	if err := s.dispatcher.Send(smsCtx, telefono, body); err != nil {
		return "", err
	}

	pending := verification.Pending{
		Code:          code,
		Nombre:        strings.TrimSpace(in.Nombre),
		PasswordPlain: in.Contrasena,
		IssuedAt:      time.Now(),
	}

	if err := s.store.Put(ctx, telefono, pending); err != nil {
		if errors.Is(err, verification.ErrStoreFull) {
			return "", apperror.ErrSmsTryLater
		}
		return "", apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	logger.WithComponent("registration").WithField("telefono", telefono).Info("código de verificación enviado")

	return telefono, nil
}

// Verificar проверяет код и завершает регистрацию: хеширует пароль,
// создаёт пользователя и выпускает токен. Запись уничтожается атомарно
// при совпадении кода, поэтому повторный вызов с тем же кодом не пройдёт.
func (s *RegistrationService) Verificar(ctx context.Context, telefono, codigo string) (*VerificarResult, error) {
	if strings.TrimSpace(telefono) == "" || strings.TrimSpace(codigo) == "" {
		return nil, apperror.ErrMissingFields
	}

	pending, err := s.store.Consume(ctx, telefono, codigo, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, verification.ErrNoPending):
			return nil, apperror.ErrNoPendingRegistration
		case errors.Is(err, verification.ErrExpired):
			return nil, apperror.ErrCodeExpired
		case errors.Is(err, verification.ErrCodeMismatch):
			return nil, apperror.ErrInvalidCode
		case errors.Is(err, verification.ErrTooManyAttempts):
			return nil, apperror.ErrTooManyAttempts
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(pending.PasswordPlain), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	usuario := &models.Usuario{
		Nombre:       pending.Nombre,
		Telefono:     telefono,
		PasswordHash: string(passHash),
		TipoUsuario:  models.RolCliente,
	}

	if err := s.usuarios.Create(ctx, usuario); err != nil {
		if errors.Is(err, repository.ErrTelefonoDuplicado) {
			return nil, apperror.ErrDuplicatePhone
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, apperror.ErrInternal.Message)
	}

	token, err := s.tokens.Generate(usuario)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("registration").WithField("usuario_id", usuario.ID).Info("usuario registrado")

	return &VerificarResult{Token: token, Usuario: usuario}, nil
}

// generateCode возвращает 6-значный код, равномерный на [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
