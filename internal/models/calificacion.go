package models

import "time"

// Calificacion — оценка блюда от 1 до 5 с необязательным комментарием.
// На пару (usuario, platillo) существует не более одной записи:
// повторная отправка обновляет прежнюю.
type Calificacion struct {
	ID           int64     `db:"id" json:"id"`
	PlatilloID   int64     `db:"platillo_id" json:"platillo_id"`
	UsuarioID    int64     `db:"usuario_id" json:"usuario_id"`
	Calificacion int       `db:"calificacion" json:"calificacion"`
	Comentario   *string   `db:"comentario" json:"comentario,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CalificacionResumen — агрегат по блюду, считается при чтении.
type CalificacionResumen struct {
	PlatilloID int64   `json:"platillo_id"`
	Promedio   float64 `json:"promedio"`
	Total      int     `json:"total"`
}
