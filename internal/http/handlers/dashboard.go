package handlers

import (
	"github.com/fulfill-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetFulfillmentDashboard 组织维度的履约看板
func (h *Handler) GetFulfillmentDashboard(c *gin.Context) {
	dashboard, err := h.StatusService.GetFulfillmentDashboard(c.Request.Context(), getOrgID(c))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to build fulfillment dashboard", err)
		return
	}

	response.Success(c, dashboard)
}
