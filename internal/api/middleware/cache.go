package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const HeaderCache = "X-Cache"

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type teeWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage 缓存 GET 请求的完整 200 响应，到期前不因写操作失效。
// 键包含访问者，登录用户的导航栏不会出现在他人的页面上。
func CachePage(pc *cache.PageCache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || ttl <= 0 {
			c.Next()
			return
		}

		computed := false
		raw, hit, err := pc.GetOrCompute(c.Request.Context(), pageKey(c), ttl, func(context.Context) ([]byte, error) {
			computed = true
			tw := &teeWriter{ResponseWriter: c.Writer}
			c.Writer = tw
			c.Header(HeaderCache, "MISS")
			c.Next()
			c.Writer = tw.ResponseWriter

			if tw.Status() != http.StatusOK || c.IsAborted() {
				return nil, cache.ErrSkip
			}
			return json.Marshal(cachedPage{
				Status:      tw.Status(),
				ContentType: tw.Header().Get("Content-Type"),
				Body:        tw.buf.Bytes(),
			})
		})
		if err != nil {
			logger.Warn("page cache encode failed", zap.Error(err))
		}
		if !hit {
			if !computed {
				c.Next()
			}
			return
		}

		var page cachedPage
		if err := json.Unmarshal(raw, &page); err != nil {
			logger.Warn("page cache decode failed", zap.Error(err))
			c.Next()
			return
		}
		c.Header(HeaderCache, "HIT")
		c.Data(page.Status, page.ContentType, page.Body)
		c.Abort()
	}
}

func pageKey(c *gin.Context) string {
	viewer := "anon"
	if id := CurrentUserID(c); id != nil {
		viewer = fmt.Sprintf("u%d", *id)
	}
	return c.Request.URL.RequestURI() + "|" + viewer
}
