package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/service"
)

// CatalogoHandler предоставляет HTTP слой для каталога меню.
type CatalogoHandler struct {
	catalogo       *service.CatalogoService
	calificaciones *service.CalificacionService
}

// NewCatalogoHandler создаёт хэндлер.
func NewCatalogoHandler(catalogo *service.CatalogoService, calificaciones *service.CalificacionService) *CatalogoHandler {
	return &CatalogoHandler{catalogo: catalogo, calificaciones: calificaciones}
}

// platilloResponse — блюдо с собранным URL изображения.
type platilloResponse struct {
	models.Platillo
	CategoriaNombre string  `json:"categoria_nombre,omitempty"`
	ImagenURL       *string `json:"imagen_url,omitempty"`
}

// ListCategorias обрабатывает GET /categorias.
func (h *CatalogoHandler) ListCategorias(c *gin.Context) {
	categorias, err := h.catalogo.ListCategorias(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if categorias == nil {
		categorias = []models.Categoria{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categorias,
	})
}

// GetCategoria обрабатывает GET /categorias/:id.
func (h *CatalogoHandler) GetCategoria(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de categoría inválido"})
		return
	}

	categoria, err := h.catalogo.GetCategoria(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    categoria,
	})
}

// ListPlatillosByCategoria обрабатывает GET /categorias/:id/platillos.
func (h *CatalogoHandler) ListPlatillosByCategoria(c *gin.Context) {
	categoriaID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de categoría inválido"})
		return
	}

	if _, err := h.catalogo.GetCategoria(c.Request.Context(), categoriaID); err != nil {
		respondError(c, err)
		return
	}

	h.listPlatillos(c, categoriaID)
}

// ListPlatillos обрабатывает GET /platillos.
// Параметр categoria_id фильтрует по категории.
func (h *CatalogoHandler) ListPlatillos(c *gin.Context) {
	var categoriaID int64
	if raw := c.Query("categoria_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de categoría inválido"})
			return
		}
		categoriaID = parsed
	}

	h.listPlatillos(c, categoriaID)
}

func (h *CatalogoHandler) listPlatillos(c *gin.Context, categoriaID int64) {
	platillos, err := h.catalogo.ListPlatillos(c.Request.Context(), categoriaID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]platilloResponse, 0, len(platillos))
	for _, p := range platillos {
		out = append(out, platilloResponse{
			Platillo:        p.Platillo,
			CategoriaNombre: p.CategoriaNombre,
			ImagenURL:       h.catalogo.ImagenURL(p.Imagen),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    out,
	})
}

// GetPlatillo обрабатывает GET /platillos/:id.
// Вместе с блюдом отдаёт агрегат оценок.
func (h *CatalogoHandler) GetPlatillo(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	platillo, err := h.catalogo.GetPlatillo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	resumen, err := h.calificaciones.Resumen(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"platillo": platilloResponse{
				Platillo:  *platillo,
				ImagenURL: h.catalogo.ImagenURL(platillo.Imagen),
			},
			"promedio": resumen.Promedio,
			"total":    resumen.Total,
		},
	})
}

// CreatePlatillo обрабатывает POST /platillos. Только для админов.
func (h *CatalogoHandler) CreatePlatillo(c *gin.Context) {
	role, err := currentUserRole(c)
	if err != nil || role != models.RolAdmin {
		respondError(c, apperror.ErrForbidden)
		return
	}

	var req struct {
		Nombre      string  `json:"nombre"`
		Descripcion *string `json:"descripcion"`
		Precio      float64 `json:"precio"`
		CategoriaID int64   `json:"categoria_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.ErrMissingFields)
		return
	}

	platillo := &models.Platillo{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		CategoriaID: req.CategoriaID,
	}

	if err := h.catalogo.CreatePlatillo(c.Request.Context(), platillo); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Platillo creado",
		"data":    platillo,
	})
}
