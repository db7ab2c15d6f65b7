package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/repository"
	"github.com/fulfill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StartFulfillmentRequest 开始履约请求
type StartFulfillmentRequest struct {
	Priority            string     `json:"priority"`
	PlannedShipDate     *time.Time `json:"planned_ship_date"`
	SpecialInstructions string     `json:"special_instructions"`
	Notes               string     `json:"notes"`
}

// StartFulfillment 开始履约：一次性种入默认里程碑
func (h *Handler) StartFulfillment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req StartFulfillmentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	view, err := h.FulfillmentService.StartFulfillment(orderID, getOrgID(c), service.StartFulfillmentInput{
		Priority:            req.Priority,
		PlannedShipDate:     req.PlannedShipDate,
		SpecialInstructions: req.SpecialInstructions,
		Notes:               req.Notes,
		Actor:               getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, fulfillmentStartErrorRules, nil, response.CodeInternal, "failed to start fulfillment")
		return
	}

	response.Success(c, view)
}

// UpdateMilestoneRequest 更新里程碑请求
type UpdateMilestoneRequest struct {
	Status        string     `json:"status" binding:"required"`
	Notes         string     `json:"notes"`
	PlannedDate   *time.Time `json:"planned_date"`
	BlockedReason string     `json:"blocked_reason"`
}

// UpdateMilestone 更新单个里程碑状态
func (h *Handler) UpdateMilestone(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		respondError(c, response.CodeBadRequest, "milestone code is required", nil)
		return
	}

	var req UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	milestone, err := h.FulfillmentService.UpdateMilestone(orderID, getOrgID(c), code, service.UpdateMilestoneInput{
		Status:        req.Status,
		Notes:         req.Notes,
		PlannedDate:   req.PlannedDate,
		BlockedReason: req.BlockedReason,
		Actor:         getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, milestoneUpdateErrorRules, nil, response.CodeInternal, "failed to update milestone")
		return
	}

	response.Success(c, milestone)
}

// GetFulfillmentStatus 查询订单履约状态视图
func (h *Handler) GetFulfillmentStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	orgID := getOrgID(c)

	if _, err := h.OrderService.GetOrder(orderID, orgID); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch order", err)
		return
	}

	response.Success(c, h.StatusService.GetFulfillmentStatus(orderID, orgID))
}

// ListFulfillmentEvents 分页查询订单履约事件
func (h *Handler) ListFulfillmentEvents(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.EventListFilter{
		Page:      page,
		PageSize:  pageSize,
		EventType: strings.TrimSpace(c.Query("event_type")),
		EventCode: strings.TrimSpace(c.Query("event_code")),
	}
	if from := strings.TrimSpace(c.Query("created_from")); from != "" {
		if ts, err := time.Parse(time.RFC3339, from); err == nil {
			filter.CreatedFrom = &ts
		}
	}
	if to := strings.TrimSpace(c.Query("created_to")); to != "" {
		if ts, err := time.Parse(time.RFC3339, to); err == nil {
			filter.CreatedTo = &ts
		}
	}

	events, total, err := h.FulfillmentService.ListEvents(orderID, getOrgID(c), filter)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to list fulfillment events", err)
		return
	}

	response.SuccessWithPage(c, events, response.BuildPagination(page, pageSize, total))
}
