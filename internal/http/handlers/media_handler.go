package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/tacofish-app/tacofish-backend/internal/models"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/service"
	"github.com/tacofish-app/tacofish-backend/internal/storage"
)

// Разрешённые типы файлов для загрузки
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// MediaHandler управляет загрузкой изображений блюд.
type MediaHandler struct {
	catalogo *service.CatalogoService
	storage  *storage.ImageStorage
}

// NewMediaHandler создаёт хэндлер.
func NewMediaHandler(catalogo *service.CatalogoService, storage *storage.ImageStorage) *MediaHandler {
	return &MediaHandler{catalogo: catalogo, storage: storage}
}

// UploadImagen обрабатывает POST /platillos/:id/imagen. Только для админов.
// Тип файла проверяется по магическим байтам, а не по расширению.
func (h *MediaHandler) UploadImagen(c *gin.Context) {
	role, err := currentUserRole(c)
	if err != nil || role != models.RolAdmin {
		respondError(c, apperror.ErrForbidden)
		return
	}

	platilloID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de platillo inválido"})
		return
	}

	if _, err := h.catalogo.GetPlatillo(c.Request.Context(), platilloID); err != nil {
		respondError(c, err)
		return
	}

	file, err := c.FormFile("imagen")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El campo imagen es obligatorio"})
		return
	}

	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El archivo no puede estar vacío"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Formato de archivo no soportado. Se permiten: .jpg, .jpeg, .png, .webp",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, apperror.ErrInternal)
		return
	}
	defer src.Close()

	// Первые 512 байт достаточно для определения типа.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo leer el archivo"})
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No se pudo determinar el tipo de archivo. Solo se permiten imágenes"})
		return
	}

	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Tipo de archivo no soportado (%s). Solo se permiten imágenes", contentType),
		})
		return
	}

	if seeker, ok := src.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			respondError(c, apperror.ErrInternal)
			return
		}
	}

	fileName, _, err := h.storage.Save(c.Request.Context(), platilloID, file.Filename, src)
	if err != nil {
		respondError(c, apperror.ErrInternal)
		return
	}

	if err := h.catalogo.SetPlatilloImagen(c.Request.Context(), platilloID, fileName); err != nil {
		_ = h.storage.Delete(c.Request.Context(), fileName)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Imagen actualizada",
		"imagen":     fileName,
		"imagen_url": h.catalogo.ImagenURL(&fileName),
	})
}
