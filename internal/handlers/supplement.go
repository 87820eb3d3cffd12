package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type SupplementHandler struct {
	supplementService *services.SupplementService
}

func NewSupplementHandler(supplementService *services.SupplementService) *SupplementHandler {
	return &SupplementHandler{supplementService: supplementService}
}

// GET /api/supplements
func (h *SupplementHandler) List(c *gin.Context) {
	list, err := h.supplementService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, list)
}

// POST /api/supplements
func (h *SupplementHandler) Create(c *gin.Context) {
	var req services.CreateSupplementRequest
	if !bindJSON(c, &req) {
		return
	}

	supp, err := h.supplementService.Create(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, supp)
}

// DELETE /api/supplements/:id
func (h *SupplementHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.supplementService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "supplement deleted"})
}
