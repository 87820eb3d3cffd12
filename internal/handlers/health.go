package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of every subsystem.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	hub   *services.SSEHub
	guard *services.ConnectivityGuard
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub, guard *services.ConnectivityGuard) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, hub: hub, guard: guard}
}

// CheckHealth returns the health status of all subsystems.
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	connectivity := "disabled"
	if h.guard != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		connectivity = "ok"
		if err := h.guard.Check(ctx); err != nil {
			connectivity = err.Error()
			overall = "degraded"
		}
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	sseClients := 0
	if h.hub != nil {
		sseClients = h.hub.ClientCount()
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "gymdesk",
		"components": gin.H{
			"database":     dbStatus,
			"connectivity": connectivity,
			"queue_mode":   queueMode,
			"sse_clients":  sseClients,
		},
	})
}
