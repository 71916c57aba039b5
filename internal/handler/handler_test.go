package handler_test

import (
	"github.com/gin-gonic/gin"

	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asUser 代替 AuthMiddleware，把固定用户放入上下文。
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &model.User{ID: id, Email: id + "@example.com"})
		c.Next()
	}
}
