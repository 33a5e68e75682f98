package models

import (
	"time"
)

// Роли пользователей. Новые аккаунты всегда создаются клиентами.
const (
	RolCliente = "cliente"
	RolAdmin   = "admin"
)

// Usuario описывает зарегистрированного пользователя приложения.
// Телефон хранится в канонической форме и уникален.
type Usuario struct {
	ID           int64     `db:"id" json:"id"`
	Nombre       string    `db:"nombre" json:"nombre"`
	Telefono     string    `db:"telefono" json:"telefono"`
	PasswordHash string    `db:"password_hash" json:"-"`
	TipoUsuario  string    `db:"tipo_usuario" json:"tipo_usuario"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PublicUsuario — поля пользователя, которые можно отдавать клиенту.
// Хеш пароля наружу не выходит никогда.
type PublicUsuario struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Telefono    string `json:"telefono"`
	TipoUsuario string `json:"tipo_usuario,omitempty"`
}

// Public возвращает публичное представление пользователя.
func (u *Usuario) Public() PublicUsuario {
	return PublicUsuario{
		ID:          u.ID,
		Nombre:      u.Nombre,
		Telefono:    u.Telefono,
		TipoUsuario: u.TipoUsuario,
	}
}
