// Package response 统一 JSON 响应格式
package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// Response 响应体
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{Code: status, Message: msg, Data: data})
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, "success", data)
}

func BadRequest(c *gin.Context, msg string) {
	JSON(c, http.StatusBadRequest, msg, nil)
}

func Unauthorized(c *gin.Context, msg string) {
	JSON(c, http.StatusUnauthorized, msg, nil)
}

func NotFound(c *gin.Context, msg string) {
	JSON(c, http.StatusNotFound, msg, nil)
}

func TooManyRequests(c *gin.Context) {
	JSON(c, http.StatusTooManyRequests, "too many requests", nil)
}

// InternalError 记录日志并上报 Sentry，不向客户端暴露错误细节
func InternalError(c *gin.Context, err error) {
	Capture(c, err)
	JSON(c, http.StatusInternalServerError, "internal server error", nil)
}

// Capture 记录 5xx 错误；Sentry 未初始化时仅写日志
func Capture(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	if sentry.CurrentHub().Client() != nil {
		sentry.CaptureException(err)
	}
}
