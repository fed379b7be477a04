package middleware

import (
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request with method, path, status and latency.
func RequestLogger() gin.HandlerFunc {
	return ginlogger.SetLogger()
}
