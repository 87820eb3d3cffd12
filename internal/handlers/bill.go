package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/middleware"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type BillHandler struct {
	billService *services.BillService
}

func NewBillHandler(billService *services.BillService) *BillHandler {
	return &BillHandler{billService: billService}
}

// List returns every bill, newest first
// GET /api/bills
func (h *BillHandler) List(c *gin.Context) {
	var (
		bills interface{}
		err   error
	)
	if email := c.Query("email"); email != "" {
		bills, err = h.billService.ListByEmail(c.Request.Context(), email)
	} else {
		bills, err = h.billService.List(c.Request.Context())
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, bills)
}

// Create records an unpaid bill
// POST /api/bills
func (h *BillHandler) Create(c *gin.Context) {
	var req services.CreateBillRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.billService.Create(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, bill)
}

// MarkPaid marks a bill paid. Repeating the call returns the bill unchanged.
// PUT /api/bills/:id/paid
func (h *BillHandler) MarkPaid(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	bill, err := h.billService.MarkPaid(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, bill)
}

// Receipt returns the printable summary of a bill
// GET /api/bills/:id/receipt
func (h *BillHandler) Receipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	receipt, err := h.billService.Receipt(c.Request.Context(), middleware.GetSession(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, receipt)
}

// Delete removes a bill
// DELETE /api/bills/:id
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.billService.Delete(c.Request.Context(), middleware.GetSession(c), id); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "bill deleted"})
}
