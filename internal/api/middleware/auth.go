package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/auth"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

const userKey = "user"

// UserLoader 按 ID 加载用户
type UserLoader interface {
	Get(ctx context.Context, id uint) (*model.User, error)
}

// Authenticate 从会话 cookie 或 Bearer token 识别当前用户；失败时按匿名处理
func Authenticate(sessions *auth.SessionManager, tokens *auth.TokenManager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := principalID(c, sessions, tokens)
		if ok {
			u, err := users.Get(c.Request.Context(), id)
			if err == nil {
				c.Set(userKey, u)
			} else {
				logger.Debug("drop stale principal", zap.Uint("user_id", id), zap.Error(err))
			}
		}
		c.Next()
	}
}

func principalID(c *gin.Context, sessions *auth.SessionManager, tokens *auth.TokenManager) (uint, bool) {
	if h := c.GetHeader("Authorization"); tokens != nil && strings.HasPrefix(h, "Bearer ") {
		claims, err := tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			return 0, false
		}
		id, err := claims.UserID()
		return id, err == nil
	}
	if sessions != nil {
		return sessions.UserID(c.Request)
	}
	return 0, false
}

// CurrentUser 当前登录用户，匿名时返回 nil
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// CurrentUserID 匿名时返回 nil
func CurrentUserID(c *gin.Context) *uint {
	if u := CurrentUser(c); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// LoginRequired 匿名访问重定向到登录页，next 为原请求地址
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(loginURL, c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginURL 拼接 next 参数，斜杠保持原样
func LoginURL(loginURL, next string) string {
	q := strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
	return loginURL + "?next=" + q
}

// APIAuthRequired API 未认证返回 401
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}
