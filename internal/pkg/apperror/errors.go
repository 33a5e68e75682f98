package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeSmsDelivery  ErrorCode = "SMS_DELIVERY_FAILED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid ErrorCode = "TOKEN_INVALID"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

// HTTPStatus возвращает статус код для произвольной ошибки (500 для неизвестных).
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// ClientMessage возвращает сообщение, которое можно показать клиенту.
// Внутренние ошибки маскируются.
func ClientMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

// Сообщения для клиента выдаются на испанском — язык мобильного приложения.
var (
	ErrMissingFields         = New(ErrCodeValidation, "Todos los campos son obligatorios")
	ErrPasswordMismatch      = New(ErrCodeValidation, "Las contraseñas no coinciden")
	ErrInvalidPhone          = New(ErrCodeValidation, "El número de teléfono debe tener 10 dígitos")
	ErrDuplicatePhone        = New(ErrCodeValidation, "Este número de teléfono ya está registrado")
	ErrSmsInvalidNumber      = New(ErrCodeSmsDelivery, "Error al enviar SMS: Número inválido")
	ErrSmsTryLater           = New(ErrCodeSmsDelivery, "Error al enviar SMS: Intenta más tarde")
	ErrNoPendingRegistration = New(ErrCodeValidation, "No hay un registro pendiente para este teléfono")
	ErrInvalidCode           = New(ErrCodeValidation, "Código de verificación inválido")
	ErrCodeExpired           = New(ErrCodeValidation, "Código expirado")
	ErrTooManyAttempts       = New(ErrCodeValidation, "Demasiados intentos, solicita un nuevo código")
	ErrUserNotFound          = New(ErrCodeNotFound, "Usuario no encontrado")
	ErrInvalidCredentials    = New(ErrCodeUnauthorized, "Credenciales incorrectas")
	ErrTokenMissing          = New(ErrCodeUnauthorized, "Token no proporcionado")
	ErrTokenInvalid          = New(ErrCodeTokenInvalid, "Token inválido")
	ErrTokenExpired          = New(ErrCodeTokenExpired, "Token expirado")
	ErrForbidden             = New(ErrCodeForbidden, "No tienes permisos para esta acción")
	ErrPlatilloNotFound      = New(ErrCodeNotFound, "Platillo no encontrado")
	ErrCategoriaNotFound     = New(ErrCodeNotFound, "Categoría no encontrada")
	ErrCalificacionNotFound  = New(ErrCodeNotFound, "Calificación no encontrada")
	ErrInternal              = New(ErrCodeInternal, "Error interno del servidor")
)
