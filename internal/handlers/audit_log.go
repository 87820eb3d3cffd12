package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type AuditLogHandler struct {
	audit *services.AuditLogger
}

func NewAuditLogHandler(audit *services.AuditLogger) *AuditLogHandler {
	return &AuditLogHandler{audit: audit}
}

// List returns the latest audit entries, optionally for one action
// GET /api/logs?limit=50&action=add_member
func (h *AuditLogHandler) List(c *gin.Context) {
	var req services.LogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	entries, err := h.audit.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, entries)
}
