package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

// MemberViewHandler serves the member dashboard under /api/me. Everything is
// scoped to the email in the caller's token.
type MemberViewHandler struct {
	view *services.MemberViewService
}

func NewMemberViewHandler(view *services.MemberViewService) *MemberViewHandler {
	return &MemberViewHandler{view: view}
}

// GET /api/me/profile
func (h *MemberViewHandler) Profile(c *gin.Context) {
	member, err := h.view.Profile(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, member)
}

// GET /api/me/bills
func (h *MemberViewHandler) Bills(c *gin.Context) {
	bills, err := h.view.MyBills(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, bills)
}

// GET /api/me/bills/:id/receipt
func (h *MemberViewHandler) Receipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	receipt, err := h.view.Receipt(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, receipt)
}

// GET /api/me/notifications
func (h *MemberViewHandler) Notifications(c *gin.Context) {
	list, err := h.view.MyNotifications(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// GET /api/me/supplements
func (h *MemberViewHandler) Supplements(c *gin.Context) {
	list, err := h.view.Supplements(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// GET /api/me/diets
func (h *MemberViewHandler) Diets(c *gin.Context) {
	list, err := h.view.MyDiets(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, list)
}

// GET /api/me/search?q=
func (h *MemberViewHandler) Search(c *gin.Context) {
	members, err := h.view.Search(c.Request.Context(), middleware.GetSession(c), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, members)
}
