package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type DietHandler struct {
	dietService *services.DietService
}

func NewDietHandler(dietService *services.DietService) *DietHandler {
	return &DietHandler{dietService: dietService}
}

// GET /api/diets
func (h *DietHandler) List(c *gin.Context) {
	list, err := h.dietService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, list)
}

// Assign adds a diet plan. A member who already has one needs confirm=true;
// without it the response is a 409 with reason "duplicate".
// POST /api/diets
func (h *DietHandler) Assign(c *gin.Context) {
	var req services.AssignDietRequest
	if !bindJSON(c, &req) {
		return
	}

	plan, err := h.dietService.Assign(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, plan)
}

// DELETE /api/diets/:id
func (h *DietHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.dietService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "diet plan deleted"})
}
