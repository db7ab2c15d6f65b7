package handlers

import (
	"errors"
	"time"

	"github.com/fulfill-next/internal/http/response"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ShipmentItemRequest 发货明细请求
type ShipmentItemRequest struct {
	OrderItemID uint   `json:"order_item_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	Notes       string `json:"notes"`
}

// CreateShipmentRequest 创建发货单请求
type CreateShipmentRequest struct {
	Items                 []ShipmentItemRequest `json:"items" binding:"required"`
	Carrier               string                `json:"carrier"`
	Service               string                `json:"service"`
	ShippingAddress       string                `json:"shipping_address"`
	TrackingNumber        string                `json:"tracking_number"`
	EstimatedDeliveryDate *time.Time            `json:"estimated_delivery_date"`
	Notes                 string                `json:"notes"`
}

// CreateShipment 创建部分发货单
func (h *Handler) CreateShipment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	items := make([]service.CreateShipmentItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateShipmentItemInput{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Notes:       item.Notes,
		})
	}

	shipment, err := h.ShipmentService.CreatePartialShipment(orderID, getOrgID(c), service.CreateShipmentInput{
		Items:                 items,
		Carrier:               req.Carrier,
		Service:               req.Service,
		ShippingAddress:       req.ShippingAddress,
		TrackingNumber:        req.TrackingNumber,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Notes:                 req.Notes,
		Actor:                 getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, shipmentCreateErrorRules, shipmentCreateDetailRules, response.CodeInternal, "failed to create shipment")
		return
	}

	response.Success(c, shipment)
}

// GetShippingStatus 查询订单发货汇总
func (h *Handler) GetShippingStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	status, err := h.ShipmentService.GetOrderShippingStatus(orderID, getOrgID(c))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch shipping status", err)
		return
	}

	response.Success(c, status)
}

// ShipShipmentRequest 发货请求
type ShipShipmentRequest struct {
	TrackingNumber        string        `json:"tracking_number"`
	Carrier               string        `json:"carrier"`
	Service               string        `json:"service"`
	ShippingCost          *models.Money `json:"shipping_cost"`
	WeightKg              *models.Money `json:"weight_kg"`
	EstimatedDeliveryDate *time.Time    `json:"estimated_delivery_date"`
	Notes                 string        `json:"notes"`
}

// ShipShipment 标记发货单已发出
func (h *Handler) ShipShipment(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ShipShipmentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	shipment, err := h.ShipmentService.ShipShipment(shipmentID, getOrgID(c), service.ShipShipmentInput{
		TrackingNumber:        req.TrackingNumber,
		Carrier:               req.Carrier,
		Service:               req.Service,
		ShippingCost:          req.ShippingCost,
		WeightKg:              req.WeightKg,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Notes:                 req.Notes,
		Actor:                 getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, shipmentTransitionErrorRules, shipmentTransitionDetailRules, response.CodeInternal, "failed to ship shipment")
		return
	}

	response.Success(c, shipment)
}

// DeliverShipmentRequest 签收请求
type DeliverShipmentRequest struct {
	ActualDeliveryDate *time.Time `json:"actual_delivery_date"`
	Notes              string     `json:"notes"`
}

// DeliverShipment 标记发货单已签收
func (h *Handler) DeliverShipment(c *gin.Context) {
	shipmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DeliverShipmentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	shipment, err := h.ShipmentService.MarkDelivered(shipmentID, getOrgID(c), service.MarkDeliveredInput{
		ActualDeliveryDate: req.ActualDeliveryDate,
		Notes:              req.Notes,
		Actor:              getActor(c),
	})
	if err != nil {
		respondWithMappedError(c, err, shipmentTransitionErrorRules, shipmentTransitionDetailRules, response.CodeInternal, "failed to deliver shipment")
		return
	}

	response.Success(c, shipment)
}
