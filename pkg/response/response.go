package response

import (
	"net/http"

	"abserver/pkg/errors"
	"abserver/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RustDesk 客户端对响应格式有固定要求：成功时直接返回载荷，失败时返回 {"error": "..."}

// ListResponse 列表返回格式
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
}

// DataResponse 单对象返回格式
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse 错误返回格式
type ErrorResponse struct {
	Error string `json:"error"`
}

// ========== 基础返回方法 ==========

// JSON 原样返回载荷
func JSON(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Empty 返回空对象 {}
func Empty(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

// Data 返回 {"data": ...}
func Data(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// List 返回 {"data": [...], "total": n}
func List(c *gin.Context, data interface{}, total int64) {
	c.JSON(http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error 根据错误类型返回对应状态码；内部错误只记录日志，不向客户端暴露细节
func Error(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("unexpected error", err)
	}

	if appErr.Code == errors.CodeServerError {
		logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Errorf("Internal server error: %v", appErr)
	}

	c.AbortWithStatusJSON(appErr.Code, ErrorResponse{Error: appErr.PublicMessage()})
}

// ========== HTTP错误快捷方法 ==========

func BadRequest(c *gin.Context, message string) {
	Error(c, errors.BadRequest("%s", message))
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, errors.Unauthorized(message))
}

func Forbidden(c *gin.Context, message string) {
	Error(c, errors.Forbidden(message))
}

func NotFound(c *gin.Context, message string) {
	Error(c, errors.NotFound(message))
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, errors.TooManyRequests(message))
}

func ServerError(c *gin.Context, message string) {
	Error(c, errors.Internal(message, nil))
}
