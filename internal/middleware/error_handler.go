package middleware

import (
	"log/slog"
	"net/http"

	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "Internal server error"

// ErrorHandler turns errors attached with c.Error into a logged 500 response.
// Business errors are written by the handlers themselves.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		for _, e := range c.Errors {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"request_id", c.GetString(RequestIDKey),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", e.Err,
			)
		}
		if !c.Writer.Written() {
			utils.ErrorResponse(c, http.StatusInternalServerError, internalErrorMessage)
		}
	}
}

// Recovery logs a panic and answers with the standard 500 envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "request panicked",
			"request_id", c.GetString(RequestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, internalErrorMessage)
		c.Abort()
	})
}
