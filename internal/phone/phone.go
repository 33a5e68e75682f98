package phone

import (
	"strings"

	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
)

// Formatter приводит телефон к каноническому виду с кодом страны.
// Каноническая форма — единственный ключ для поиска пользователя
// и записи ожидающей регистрации.
type Formatter struct {
	prefix string
}

// NewFormatter создаёт форматтер с заданным кодом страны (например "+52").
func NewFormatter(prefix string) *Formatter {
	return &Formatter{prefix: prefix}
}

// Format убирает все нецифровые символы и добавляет код страны.
// Требование: ровно 10 цифр после очистки.
func (f *Formatter) Format(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if len(cleaned) != 10 {
		return "", apperror.ErrInvalidPhone
	}

	return f.prefix + cleaned, nil
}
