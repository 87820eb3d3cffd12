package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

type memberListQuery struct {
	Sort  string `form:"sort"`
	Order string `form:"order"` // asc, desc
}

// List returns every member
// GET /api/members?sort=name&order=asc
func (h *MemberHandler) List(c *gin.Context) {
	var q memberListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	members, err := h.memberService.List(c.Request.Context(), services.Order{Key: q.Sort, Desc: q.Order != "asc"})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, members)
}

// GetByID returns a member by ID
// GET /api/members/:id
func (h *MemberHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	member, err := h.memberService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, member)
}

// Create adds a member
// POST /api/members
func (h *MemberHandler) Create(c *gin.Context) {
	var req services.CreateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.memberService.Create(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, member)
}

// Update renames a member
// PUT /api/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req services.UpdateMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.memberService.UpdateName(c.Request.Context(), middleware.GetSession(c), id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, member)
}

// Delete removes a member. Bills, notifications and diet plans are kept.
// DELETE /api/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.memberService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "member deleted"})
}
