// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "resume-chat-go/internal/errors"
	"resume-chat-go/pkg/log"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// validateRequest 按 validate 标签校验请求体，失败时返回包装了 ErrValidation 的错误。
func validateRequest(payload interface{}) error {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' tag", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(msgs, "; "))
}

// statusFor 把业务错误映射到 HTTP 状态码与对外的错误信息。
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "未登录或会话已过期"
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "资源不存在"
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, "没有权限操作该资源"
	case errors.Is(err, apperrors.ErrValidation):
		// 校验错误的信息本身对用户可读
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrNoFile):
		return http.StatusBadRequest, "没有上传文件"
	case errors.Is(err, apperrors.ErrConfiguration):
		return http.StatusInternalServerError, "服务配置不完整"
	default:
		return http.StatusInternalServerError, "服务器内部错误"
	}
}

// writeError 统一输出错误响应，原始错误只写日志。
func writeError(c *gin.Context, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("请求处理失败", "path", c.Request.URL.Path, "status", status, "error", err)
	} else {
		log.Warnw("请求被拒绝", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
