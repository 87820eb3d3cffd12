package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

const csvContentType = "text/csv; charset=utf-8"

type ExportHandler struct {
	exportService *services.ExportService
}

func NewExportHandler(exportService *services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// GET /api/export/members
func (h *ExportHandler) Members(c *gin.Context) {
	export, err := h.exportService.Members(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, export.Filename, csvContentType, export.Content)
}

// GET /api/export/bills
func (h *ExportHandler) Bills(c *gin.Context) {
	export, err := h.exportService.Bills(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Attachment(c, export.Filename, csvContentType, export.Content)
}
