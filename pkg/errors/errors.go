package errors

import (
	stderrors "errors"
	"fmt"
)

// ========== 错误码常量定义 ==========

const (
	CodeSuccess = 200
)

// HTTP层错误码
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeTooMany      = 429
	CodeServerError  = 500
)

// InternalMessage 返回给客户端的内部错误提示，详细信息只写日志
const InternalMessage = "Internal server error"

// AppError 业务错误，Code 对应 HTTP 状态码
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// PublicMessage 可以安全返回给客户端的消息
func (e *AppError) PublicMessage() string {
	if e.Code == CodeServerError {
		return InternalMessage
	}
	return e.Message
}

func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func BadRequest(format string, args ...any) *AppError {
	return New(CodeInvalidParam, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Conflict(format string, args ...any) *AppError {
	return New(CodeConflict, fmt.Sprintf(format, args...))
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooMany, message)
}

// Internal 包装存储层或其它不可预期的错误
func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeServerError, Message: message, Err: err}
}

// Wrap 已经是 AppError 的直接返回，否则包装为 Internal
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Internal(message, err)
}

func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf 返回错误对应的错误码，非 AppError 视为内部错误
func CodeOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeServerError
}
