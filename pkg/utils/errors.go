package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AppError is a business-rule violation that maps directly to a 4xx response.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func BadRequest(message string) *AppError   { return NewAppError(http.StatusBadRequest, message) }
func Unauthorized(message string) *AppError { return NewAppError(http.StatusUnauthorized, message) }
func Forbidden(message string) *AppError    { return NewAppError(http.StatusForbidden, message) }
func NotFound(message string) *AppError     { return NewAppError(http.StatusNotFound, message) }
func Conflict(message string) *AppError     { return NewAppError(http.StatusConflict, message) }

// StatusOf returns the HTTP status carried by err, or 500 when err is not an AppError.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// HandleError writes business errors directly and forwards everything else to the
// error handling middleware, which logs it and answers 500.
func HandleError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		ErrorResponse(c, appErr.Status, appErr.Message)
		return
	}
	_ = c.Error(err)
	c.Abort()
}
