package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/pkg/response"
)

// Recovery panic 转为 500，并记录/上报
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		response.Capture(c, fmt.Errorf("panic: %v", rec))
		if isAPI(c) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
			})
			return
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
