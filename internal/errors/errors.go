// Package errors 定义了全应用共享的哨兵错误。
// 业务层返回这些错误（通常用 %w 包装附加上下文），handler 层用 errors.Is 映射到 HTTP 状态码。
package errors

import "errors"

var (
	// ErrUnauthorized 表示请求缺少有效会话，对应 401。
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound 表示资源不存在或不属于调用者，对应 404。
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden 表示资源存在但调用者不是所有者，对应 403。
	ErrForbidden = errors.New("forbidden")

	// ErrValidation 表示输入未通过校验，对应 400。
	ErrValidation = errors.New("validation failed")

	// ErrNoFile 表示上传请求中没有可接受的文件，对应 400。
	ErrNoFile = errors.New("no file uploaded")

	// ErrUpstream 表示模型或存储后端调用失败，对应 500。
	ErrUpstream = errors.New("upstream failure")

	// ErrConfiguration 表示缺少必要配置（例如模型凭证），对应 500，且请求在任何持久化之前终止。
	ErrConfiguration = errors.New("configuration error")
)
