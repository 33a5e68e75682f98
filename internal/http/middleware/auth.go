package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
	"github.com/tacofish-app/tacofish-backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey   = "usuarioID"
	ContextRoleKey     = "tipoUsuario"
	ContextTelefonoKey = "telefono"
)

// AuthMiddleware проверяет JWT токен из заголовка Authorization.
// Просроченный и невалидный токены дают разные сообщения,
// чтобы клиент мог отличить необходимость повторного входа.
func AuthMiddleware(tokens *service.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(apperror.ErrTokenMissing.HTTPStatus, gin.H{"error": apperror.ErrTokenMissing.Message})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(apperror.HTTPStatus(err), gin.H{"error": apperror.ClientMessage(err)})
			return
		}

		c.Set(ContextUserIDKey, claims.UsuarioID)
		c.Set(ContextRoleKey, claims.TipoUsuario)
		c.Set(ContextTelefonoKey, claims.Telefono)
		c.Next()
	}
}
