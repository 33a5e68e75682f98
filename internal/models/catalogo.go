package models

import "time"

// Categoria — раздел меню (тако, напитки и т.д.).
type Categoria struct {
	ID        int64     `db:"id" json:"id"`
	Nombre    string    `db:"nombre" json:"nombre"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Platillo — блюдо меню. Imagen хранит имя файла, URL собирается
// на уровне сервиса из BASE_URL.
type Platillo struct {
	ID          int64     `db:"id" json:"id"`
	Nombre      string    `db:"nombre" json:"nombre"`
	Descripcion *string   `db:"descripcion" json:"descripcion,omitempty"`
	Precio      float64   `db:"precio" json:"precio"`
	CategoriaID int64     `db:"categoria_id" json:"categoria_id"`
	Imagen      *string   `db:"imagen" json:"imagen,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PlatilloConCategoria — блюдо вместе с названием категории (join для списков).
type PlatilloConCategoria struct {
	Platillo
	CategoriaNombre string `db:"categoria_nombre" json:"categoria_nombre"`
}
