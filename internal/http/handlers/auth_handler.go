package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации, верификации и входа.
type AuthHandler struct {
	registration *service.RegistrationService
	auth         *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(registration *service.RegistrationService, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{registration: registration, auth: auth}
}

// Registro обрабатывает POST /registro: начало регистрации с отправкой SMS кода.
func (h *AuthHandler) Registro(c *gin.Context) {
	// Ключи с ñ: мобильный клиент шлёт именно contraseña/confirmarContraseña.
	var req struct {
		Nombre              string `json:"nombre"`
		Telefono            string `json:"telefono"`
		Contrasena          string `json:"contraseña"`
		ConfirmarContrasena string `json:"confirmarContraseña"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.ErrMissingFields)
		return
	}

	telefono, err := h.registration.Iniciar(c.Request.Context(), service.IniciarInput{
		Nombre:              req.Nombre,
		Telefono:            req.Telefono,
		Contrasena:          req.Contrasena,
		ConfirmarContrasena: req.ConfirmarContrasena,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Código de verificación enviado",
		"telefono": telefono,
	})
}

// VerificarCodigo обрабатывает POST /verificar-codigo: проверку кода
// и создание пользователя.
func (h *AuthHandler) VerificarCodigo(c *gin.Context) {
	var req struct {
		Telefono string `json:"telefono"`
		Codigo   string `json:"codigo"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.ErrMissingFields)
		return
	}

	result, err := h.registration.Verificar(c.Request.Context(), req.Telefono, req.Codigo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Usuario registrado exitosamente",
		"token":   result.Token,
		"usuario": gin.H{
			"id":       result.Usuario.ID,
			"nombre":   result.Usuario.Nombre,
			"telefono": result.Usuario.Telefono,
		},
	})
}

// Login обрабатывает POST /login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Telefono   string `json:"telefono"`
		Contrasena string `json:"contraseña"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.ErrMissingFields)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Telefono, req.Contrasena)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Inicio de sesión exitoso",
		"token":   result.Token,
		"usuario": result.Usuario.Public(),
	})
}

// VerifyToken обрабатывает GET /verify-token: проверяет токен
// и возвращает актуального пользователя.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		respondError(c, apperror.ErrTokenMissing)
		return
	}

	usuario, err := h.auth.VerifyToken(c.Request.Context(), strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token válido",
		"usuario": usuario.Public(),
	})
}
