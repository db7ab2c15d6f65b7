package handlers

import (
	"github.com/fulfill-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UpdateOrderStatusRequest 更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus 按状态机推进订单宏观状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.UpdateOrderStatus(orderID, getOrgID(c), req.Status, getActor(c))
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, orderStatusDetailRules, response.CodeInternal, "failed to update order status")
		return
	}

	response.Success(c, order)
}

// BulkUpdateOrderStatusRequest 批量更新订单状态请求
type BulkUpdateOrderStatusRequest struct {
	OrderIDs []uint `json:"order_ids" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

// BulkUpdateOrderStatus 批量推进订单状态，逐单返回处理结果
func (h *Handler) BulkUpdateOrderStatus(c *gin.Context) {
	var req BulkUpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	results, err := h.OrderService.BulkUpdateOrderStatus(req.OrderIDs, getOrgID(c), req.Status, getActor(c))
	if err != nil {
		respondWithMappedError(c, err, orderStatusErrorRules, orderStatusDetailRules, response.CodeInternal, "failed to update order statuses")
		return
	}

	response.Success(c, results)
}
