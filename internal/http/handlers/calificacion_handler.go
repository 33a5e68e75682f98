package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/service"
)

// CalificacionHandler предоставляет HTTP слой для оценок блюд.
type CalificacionHandler struct {
	calificaciones *service.CalificacionService
}

// NewCalificacionHandler создаёт хэндлер.
func NewCalificacionHandler(calificaciones *service.CalificacionService) *CalificacionHandler {
	return &CalificacionHandler{calificaciones: calificaciones}
}

// Calificar обрабатывает POST /platillos/:id/calificaciones.
// Повторная оценка того же блюда обновляет существующую запись.
func (h *CalificacionHandler) Calificar(c *gin.Context) {
	usuarioID, err := currentUserID(c)
	if err != nil {
		respondError(c, apperror.ErrTokenMissing)
		return
	}

	platilloID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	var req struct {
		Calificacion int     `json:"calificacion"`
		Comentario   *string `json:"comentario"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.ErrMissingFields)
		return
	}

	calificacion, created, err := h.calificaciones.Calificar(c.Request.Context(), usuarioID, platilloID, req.Calificacion, req.Comentario)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	message := "Calificación actualizada"
	if created {
		status = http.StatusCreated
		message = "Calificación registrada"
	}

	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    calificacion,
	})
}

// Listar обрабатывает GET /platillos/:id/calificaciones.
// Возвращает страницу оценок и агрегат (средний балл, количество).
func (h *CalificacionHandler) Listar(c *gin.Context) {
	platilloID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	list, resumen, err := h.calificaciones.Listar(c.Request.Context(), platilloID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	if list == nil {
		list = []models.Calificacion{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"calificaciones": list,
			"promedio":       resumen.Promedio,
			"total":          resumen.Total,
		},
	})
}

// Resumen обрабатывает GET /platillos/:id/calificaciones/resumen.
func (h *CalificacionHandler) Resumen(c *gin.Context) {
	platilloID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	resumen, err := h.calificaciones.Resumen(c.Request.Context(), platilloID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resumen,
	})
}

// Eliminar обрабатывает DELETE /platillos/:id/calificaciones и
// DELETE /platillos/:id/calificaciones/:usuarioId.
// Без :usuarioId пользователь удаляет свою оценку; чужую может
// удалить только админ.
func (h *CalificacionHandler) Eliminar(c *gin.Context) {
	usuarioID, err := currentUserID(c)
	if err != nil {
		respondError(c, apperror.ErrTokenMissing)
		return
	}

	platilloID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	targetID := usuarioID
	if raw := c.Param("usuarioId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de usuario inválido"})
			return
		}
		if parsed != usuarioID {
			role, err := currentUserRole(c)
			if err != nil || role != models.RolAdmin {
				respondError(c, apperror.ErrForbidden)
				return
			}
		}
		targetID = parsed
	}

	if err := h.calificaciones.Eliminar(c.Request.Context(), targetID, platilloID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Calificación eliminada",
	})
}
