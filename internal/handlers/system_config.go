package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/response"
)

type SystemConfigHandler struct {
	configService  *services.SystemConfigService
	holidayService *services.HolidayService
}

func NewSystemConfigHandler(configService *services.SystemConfigService, holidayService *services.HolidayService) *SystemConfigHandler {
	return &SystemConfigHandler{
		configService:  configService,
		holidayService: holidayService,
	}
}

// GET /api/system-config/reminder
func (h *SystemConfigHandler) GetReminderConfig(c *gin.Context) {
	response.Success(c, h.configService.GetReminderConfig())
}

// PUT /api/system-config/reminder
func (h *SystemConfigHandler) UpdateReminderConfig(c *gin.Context) {
	var req services.UpdateReminderConfigRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.configService.UpdateReminderConfig(c.Request.Context(), &req); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, h.configService.GetReminderConfig())
}

// GET /api/system-config/holiday-countries
func (h *SystemConfigHandler) GetCountries(c *gin.Context) {
	response.Success(c, h.holidayService.GetSupportedCountries())
}
