package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/internal/middleware"
)

// GetProfile 处理 GET /api/me，返回 AuthMiddleware 注入的当前用户。
func GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		writeError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, user)
}
