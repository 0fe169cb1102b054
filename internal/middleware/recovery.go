// Package middleware holds the gin middleware of the private HTTP listener
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/magnusfroste/notton/pkg/app"
	"github.com/magnusfroste/notton/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件
func RecoveryWithLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			var errorMsg string
			switch v := r.(type) {
			case error:
				errorMsg = v.Error()
				logger.Error("Recovered from panic",
					zap.String("router", path),
					zap.String("method", c.Request.Method),
					zap.String("ip", c.ClientIP()),
					zap.Error(v),
					zap.String("stack", string(debug.Stack())),
				)
			default:
				errorMsg = fmt.Sprintf("%v", v)
				logger.Error("Recovered from unknown panic",
					zap.String("router", path),
					zap.String("method", c.Request.Method),
					zap.String("ip", c.ClientIP()),
					zap.String("panic_value", errorMsg),
					zap.String("stack", string(debug.Stack())),
				)
			}

			// 返回统一的错误响应
			app.NewResponse(c).ToResponse(code.ErrorServerInternal.Clone().WithDetails(errorMsg))
			c.Abort()
		}()

		c.Next()
	}
}
