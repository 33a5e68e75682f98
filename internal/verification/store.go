package verification

import (
	"context"
	"errors"
	"time"
)

// Ошибки хранилища. Сервис регистрации транслирует их в ответы клиенту.
var (
	// ErrNoPending — для телефона нет ожидающей регистрации.
	ErrNoPending = errors.New("no pending registration")
	// ErrExpired — срок кода истёк, запись удалена.
	ErrExpired = errors.New("verification code expired")
	// ErrCodeMismatch — код не совпал, запись сохранена для повторной попытки.
	ErrCodeMismatch = errors.New("verification code mismatch")
	// ErrTooManyAttempts — лимит неверных попыток исчерпан, запись удалена.
	ErrTooManyAttempts = errors.New("too many verification attempts")
	// ErrStoreFull — достигнут лимит ожидающих записей.
	ErrStoreFull = errors.New("pending registration limit reached")
)

// Pending — ожидающая регистрация, ключом служит канонический телефон.
// Пароль хранится открытым только до успешной верификации,
// затем хешируется и запись уничтожается.
type Pending struct {
	Code          string    `json:"code"`
	Nombre        string    `json:"nombre"`
	PasswordPlain string    `json:"password_plain"`
	IssuedAt      time.Time `json:"issued_at"`
	Attempts      int       `json:"attempts"`
}

// Store — хранилище ожидающих регистраций с TTL семантикой.
// Put перезаписывает существующую запись: последний запрошенный код выигрывает.
// Consume атомарно проверяет код и удаляет запись: один код нельзя
// использовать дважды даже при конкурентных вызовах.
type Store interface {
	Put(ctx context.Context, telefono string, p Pending) error
	Consume(ctx context.Context, telefono, code string, now time.Time) (*Pending, error)
	Delete(ctx context.Context, telefono string) error
	Sweep(ctx context.Context, now time.Time) int
	Len(ctx context.Context) int
}
