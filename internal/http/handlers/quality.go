package handlers

import (
	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateQualityCheckRequest 录入质检记录请求
type CreateQualityCheckRequest struct {
	OrderItemID   *uint         `json:"order_item_id"`
	WorkOrderID   *uint         `json:"work_order_id"`
	CheckType     string        `json:"check_type" binding:"required"`
	CheckedBy     string        `json:"checked_by"`
	CheckCriteria string        `json:"check_criteria"`
	OverallResult string        `json:"overall_result" binding:"required"`
	DefectsFound  []string      `json:"defects_found"`
	Score         *models.Money `json:"score"`
	Notes         string        `json:"notes"`
}

// CreateQualityCheck 录入一条不可变质检记录
func (h *Handler) CreateQualityCheck(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateQualityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	checkedBy := req.CheckedBy
	if checkedBy == "" {
		checkedBy = getActor(c)
	}

	check, err := h.QualityService.CreateQualityCheck(orderID, getOrgID(c), service.CreateQualityCheckInput{
		OrderItemID:   req.OrderItemID,
		WorkOrderID:   req.WorkOrderID,
		CheckType:     req.CheckType,
		CheckedBy:     checkedBy,
		CheckCriteria: req.CheckCriteria,
		OverallResult: req.OverallResult,
		DefectsFound:  req.DefectsFound,
		Score:         req.Score,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithMappedError(c, err, qualityCreateErrorRules, nil, response.CodeInternal, "failed to create quality check")
		return
	}

	response.Success(c, check)
}
