package handler

import (
	"context"
	"net/http"
	"time"

	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health reports liveness plus a database ping when a connection is configured
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{
		"status":  "healthy",
		"service": "blood-donation-backend",
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "data": status})
			return
		}
		status["database"] = "ok"
	}
	utils.SuccessResponse(c, status)
}
