package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/yatube/pkg/metrics"
	"github.com/d60-Lab/yatube/pkg/response"
)

// RateLimit 按客户端 IP 令牌桶限流；空闲 10 分钟的桶被回收
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiters := expirable.NewLRU[string, *rate.Limiter](10000, nil, 10*time.Minute)
	var mu sync.Mutex

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		l, ok := limiters.Get(ip)
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters.Add(ip, l)
		}
		mu.Unlock()

		if !l.Allow() {
			metrics.RateLimited.Inc()
			if isAPI(c) {
				response.TooManyRequests(c)
			} else {
				c.String(http.StatusTooManyRequests, "Too Many Requests")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
