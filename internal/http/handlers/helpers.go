package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tacofish-app/tacofish-backend/internal/http/middleware"
	"github.com/tacofish-app/tacofish-backend/internal/pkg/apperror"
)

var errUserNotInContext = errors.New("пользователь не найден в контексте")

// currentUserID извлекает идентификатор пользователя из контекста.
func currentUserID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, errUserNotInContext
	}

	userID, ok := raw.(int64)
	if !ok {
		return 0, errUserNotInContext
	}

	return userID, nil
}

// currentUserRole извлекает роль пользователя из контекста.
func currentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", errUserNotInContext
	}

	role, ok := raw.(string)
	if !ok {
		return "", errUserNotInContext
	}

	return role, nil
}

// respondError отдаёт клиенту сообщение и статус из apperror.
func respondError(c *gin.Context, err error) {
	c.JSON(apperror.HTTPStatus(err), gin.H{"error": apperror.ClientMessage(err)})
}
