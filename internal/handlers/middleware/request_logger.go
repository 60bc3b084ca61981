package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/avantpro-accounts/internal/domain/ports"
)

// BaseURL disponibiliza a URL base da API para as respostas RFC 7807
func BaseURL(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("base_url", baseURL)
		c.Next()
	}
}

// RequestLogger registra cada requisição no logger da aplicação
func RequestLogger(logger ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request failed", args...)
		case status >= 400:
			logger.Warn("request rejected", args...)
		default:
			logger.Info("request handled", args...)
		}
	}
}
