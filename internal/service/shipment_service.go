package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/repository"
)

// shipmentNumberMaxAttempts 发货单号冲突重试次数
const shipmentNumberMaxAttempts = 3

// ShipmentService 发货台账服务
type ShipmentService struct {
	orderRepo          repository.OrderRepository
	orderItemRepo      repository.OrderItemRepository
	shipmentRepo       repository.ShipmentRepository
	orgRepo            repository.OrganizationRepository
	eventRepo          repository.EventRepository
	orderService       *OrderService
	fulfillmentService *FulfillmentService
	autoComplete       *AutoCompleteService
	queueClient        *queue.Client
}

// NewShipmentService 创建发货服务
func NewShipmentService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	shipmentRepo repository.ShipmentRepository,
	orgRepo repository.OrganizationRepository,
	eventRepo repository.EventRepository,
	orderService *OrderService,
	fulfillmentService *FulfillmentService,
	autoComplete *AutoCompleteService,
	queueClient *queue.Client,
) *ShipmentService {
	return &ShipmentService{
		orderRepo:          orderRepo,
		orderItemRepo:      orderItemRepo,
		shipmentRepo:       shipmentRepo,
		orgRepo:            orgRepo,
		eventRepo:          eventRepo,
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
		autoComplete:       autoComplete,
		queueClient:        queueClient,
	}
}

// CreateShipmentItemInput 发货明细输入
type CreateShipmentItemInput struct {
	OrderItemID uint
	Quantity    int
	Notes       string
}

// CreateShipmentInput 创建发货单输入
type CreateShipmentInput struct {
	Items                 []CreateShipmentItemInput
	Carrier               string
	Service               string
	ShippingAddress       string
	TrackingNumber        string
	EstimatedDeliveryDate *time.Time
	Notes                 string
	Actor                 string
}

// OrderShippingStatus 订单维度的发货汇总
type OrderShippingStatus struct {
	TotalItems         int  `json:"total_items"`
	ShippedItems       int  `json:"shipped_items"`
	DeliveredItems     int  `json:"delivered_items"`
	RemainingItems     int  `json:"remaining_items"`
	IsFullyShipped     bool `json:"is_fully_shipped"`
	IsFullyDelivered   bool `json:"is_fully_delivered"`
	ShipmentCount      int  `json:"shipment_count"`
	ShippedShipments   int  `json:"shipped_shipments"`
	DeliveredShipments int  `json:"delivered_shipments"`
}

// computeShippingStatus 由订单项与发货单推导发货汇总
func computeShippingStatus(items []models.OrderItem, shipments []models.Shipment) OrderShippingStatus {
	status := OrderShippingStatus{ShipmentCount: len(shipments)}
	for _, item := range items {
		status.TotalItems += item.Quantity
	}
	for _, shipment := range shipments {
		shipped := shipment.Status == constants.ShipmentStatusShipped ||
			shipment.Status == constants.ShipmentStatusDelivered
		delivered := shipment.Status == constants.ShipmentStatusDelivered
		if shipped {
			status.ShippedShipments++
		}
		if delivered {
			status.DeliveredShipments++
		}
		for _, item := range shipment.Items {
			if shipped {
				status.ShippedItems += item.Quantity
			}
			if delivered {
				status.DeliveredItems += item.Quantity
			}
		}
	}
	status.RemainingItems = status.TotalItems - status.ShippedItems
	status.IsFullyShipped = status.RemainingItems <= 0
	status.IsFullyDelivered = status.DeliveredItems >= status.TotalItems
	return status
}

// CreatePartialShipment 创建部分发货单：逐项校验剩余量，明细失败时补偿删除主单
func (s *ShipmentService) CreatePartialShipment(orderID, orgID uint, input CreateShipmentInput) (*models.Shipment, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if len(input.Items) == 0 {
		return nil, ErrShipmentItemsRequired
	}

	// 同一订单项在一次请求里可能出现多行，按订单项累计后再与剩余量比较
	requested := make(map[uint]int64, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: order_item %d quantity must be positive", ErrShipmentItemsRequired, item.OrderItemID)
		}
		orderItem, err := s.orderItemRepo.GetByID(item.OrderItemID, orderID, orgID)
		if err != nil {
			return nil, fmt.Errorf("fetch order item: %w", err)
		}
		if orderItem == nil {
			return nil, fmt.Errorf("%w: order_item %d", ErrOrderItemNotFound, item.OrderItemID)
		}
		alreadyShipped, err := s.shipmentRepo.SumShippedQuantity(orderItem.ID)
		if err != nil {
			return nil, fmt.Errorf("sum shipped quantity: %w", err)
		}
		requested[orderItem.ID] += int64(item.Quantity)
		remaining := int64(orderItem.Quantity) - alreadyShipped
		if requested[orderItem.ID] > remaining {
			return nil, fmt.Errorf("%w: order_item %d requested %d remaining %d",
				ErrShipmentQuantityExceeded, orderItem.ID, requested[orderItem.ID], remaining)
		}
	}

	org, err := s.orgRepo.GetByID(orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch organization: %w", err)
	}
	if org == nil {
		return nil, ErrOrganizationNotFound
	}

	now := time.Now()
	year := now.UTC().Year()
	seq, err := s.shipmentRepo.CountByOrgInYear(orgID, year)
	if err != nil {
		return nil, fmt.Errorf("count shipments: %w", err)
	}

	shipment := &models.Shipment{
		OrgID:                 orgID,
		OrderID:               orderID,
		Status:                constants.ShipmentStatusPreparing,
		Carrier:               strings.TrimSpace(input.Carrier),
		Service:               strings.TrimSpace(input.Service),
		TrackingNumber:        strings.TrimSpace(input.TrackingNumber),
		ShippingAddress:       strings.TrimSpace(input.ShippingAddress),
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		Notes:                 input.Notes,
	}

	// 单号按 组织代码-年份-序号 生成，唯一索引冲突时递增序号重试
	var createErr error
	for attempt := 0; attempt < shipmentNumberMaxAttempts; attempt++ {
		shipment.ShipmentNumber = fmt.Sprintf("%s-%d-%05d", org.Code, year, seq+int64(attempt)+1)
		if createErr = s.shipmentRepo.Create(shipment); createErr == nil {
			break
		}
	}
	if createErr != nil {
		logger.Errorw("shipment_create_failed",
			"order_id", orderID,
			"org_id", orgID,
			"error", createErr,
		)
		return nil, ErrShipmentCreateFailed
	}

	items := make([]models.ShipmentItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.ShipmentItem{
			OrgID:       orgID,
			ShipmentID:  shipment.ID,
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Notes:       item.Notes,
		})
	}
	if err := s.shipmentRepo.CreateItems(items); err != nil {
		// 不允许出现没有明细的发货单，明细写入失败时删掉刚建的主单
		if delErr := s.shipmentRepo.Delete(shipment.ID); delErr != nil {
			logger.Errorw("shipment_compensate_delete_failed",
				"shipment_id", shipment.ID,
				"error", delErr,
			)
		}
		logger.Errorw("shipment_items_create_failed",
			"shipment_id", shipment.ID,
			"order_id", orderID,
			"error", err,
		)
		return nil, ErrShipmentCreateFailed
	}
	shipment.Items = items

	if err := s.eventRepo.Append(&models.FulfillmentEvent{
		OrgID:       orgID,
		OrderID:     orderID,
		EventCode:   constants.EventCodeReadyForPackaging,
		EventType:   constants.EventTypeShipment,
		ActorUserID: input.Actor,
		Metadata: models.JSON{
			"shipment_number": shipment.ShipmentNumber,
			"carrier":         shipment.Carrier,
			"item_count":      len(items),
		},
		CreatedAt: now,
	}); err != nil {
		logger.Warnw("shipment_event_append_failed",
			"shipment_id", shipment.ID,
			"event_code", constants.EventCodeReadyForPackaging,
			"error", err,
		)
	}

	logger.Infow("shipment_created",
		"shipment_id", shipment.ID,
		"shipment_number", shipment.ShipmentNumber,
		"order_id", orderID,
		"item_count", len(items),
	)
	return shipment, nil
}

// ShipShipmentInput 发货输入
type ShipShipmentInput struct {
	TrackingNumber        string
	Carrier               string
	Service               string
	ShippingCost          *models.Money
	WeightKg              *models.Money
	EstimatedDeliveryDate *time.Time
	Notes                 string
	Actor                 string
}

// ShipShipment 发货：补充承运信息并触发订单级发货汇总联动
func (s *ShipmentService) ShipShipment(shipmentID, orgID uint, input ShipShipmentInput) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch shipment: %w", err)
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	if shipment.Status == constants.ShipmentStatusDelivered {
		return nil, fmt.Errorf("%w: shipment %s already delivered", ErrShipmentStatusInvalid, shipment.ShipmentNumber)
	}

	now := time.Now()
	if tracking := strings.TrimSpace(input.TrackingNumber); tracking != "" {
		shipment.TrackingNumber = tracking
	}
	if carrier := strings.TrimSpace(input.Carrier); carrier != "" {
		shipment.Carrier = carrier
	}
	if service := strings.TrimSpace(input.Service); service != "" {
		shipment.Service = service
	}
	if input.ShippingCost != nil {
		shipment.ShippingCost = *input.ShippingCost
	}
	if input.WeightKg != nil {
		shipment.WeightKg = input.WeightKg
	}
	if input.EstimatedDeliveryDate != nil {
		shipment.EstimatedDeliveryDate = input.EstimatedDeliveryDate
	}
	if strings.TrimSpace(input.Notes) != "" {
		shipment.Notes = input.Notes
	}
	shipment.Status = constants.ShipmentStatusShipped
	shipment.ShippedAt = &now
	shipment.UpdatedAt = now

	if err := s.shipmentRepo.Update(shipment); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}

	if err := s.eventRepo.Append(&models.FulfillmentEvent{
		OrgID:       orgID,
		OrderID:     shipment.OrderID,
		EventCode:   constants.EventCodeShipped,
		EventType:   constants.EventTypeShipment,
		ActorUserID: input.Actor,
		Metadata: models.JSON{
			"shipment_number": shipment.ShipmentNumber,
			"tracking_number": shipment.TrackingNumber,
			"carrier":         shipment.Carrier,
		},
		CreatedAt: now,
	}); err != nil {
		logger.Warnw("shipment_event_append_failed",
			"shipment_id", shipment.ID,
			"event_code", constants.EventCodeShipped,
			"error", err,
		)
	}

	s.syncShippingMilestones(shipment.OrderID, orgID, input.Actor)

	if err := s.queueClient.EnqueueShipmentNotify(queue.ShipmentNotifyPayload{
		ShipmentID:     shipment.ID,
		OrderID:        shipment.OrderID,
		OrgID:          orgID,
		TrackingNumber: shipment.TrackingNumber,
	}); err != nil {
		logger.Warnw("shipment_notify_enqueue_failed",
			"shipment_id", shipment.ID,
			"error", err,
		)
	}
	return shipment, nil
}

// MarkDeliveredInput 签收输入
type MarkDeliveredInput struct {
	ActualDeliveryDate *time.Time
	Notes              string
	Actor              string
}

// MarkDelivered 签收：仅接受已发货的发货单
func (s *ShipmentService) MarkDelivered(shipmentID, orgID uint, input MarkDeliveredInput) (*models.Shipment, error) {
	shipment, err := s.shipmentRepo.GetByID(shipmentID, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch shipment: %w", err)
	}
	if shipment == nil {
		return nil, ErrShipmentNotFound
	}
	if shipment.Status != constants.ShipmentStatusShipped {
		return nil, fmt.Errorf("%w: shipment %s is %s, only shipped shipments can be delivered",
			ErrShipmentStatusInvalid, shipment.ShipmentNumber, shipment.Status)
	}

	now := time.Now()
	deliveredAt := input.ActualDeliveryDate
	if deliveredAt == nil {
		deliveredAt = &now
	}
	shipment.Status = constants.ShipmentStatusDelivered
	shipment.ActualDeliveryDate = deliveredAt
	if strings.TrimSpace(input.Notes) != "" {
		shipment.Notes = input.Notes
	}
	shipment.UpdatedAt = now

	if err := s.shipmentRepo.Update(shipment); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}

	if err := s.eventRepo.Append(&models.FulfillmentEvent{
		OrgID:       orgID,
		OrderID:     shipment.OrderID,
		EventCode:   constants.EventCodeDelivered,
		EventType:   constants.EventTypeDelivery,
		ActorUserID: input.Actor,
		Notes:       input.Notes,
		Metadata: models.JSON{
			"shipment_number":      shipment.ShipmentNumber,
			"actual_delivery_date": deliveredAt.Format(time.RFC3339),
		},
		CreatedAt: now,
	}); err != nil {
		logger.Warnw("shipment_event_append_failed",
			"shipment_id", shipment.ID,
			"event_code", constants.EventCodeDelivered,
			"error", err,
		)
	}

	s.syncShippingMilestones(shipment.OrderID, orgID, input.Actor)

	if err := s.queueClient.EnqueueDeliveryNotify(queue.DeliveryNotifyPayload{
		ShipmentID: shipment.ID,
		OrderID:    shipment.OrderID,
		OrgID:      orgID,
	}); err != nil {
		logger.Warnw("delivery_notify_enqueue_failed",
			"shipment_id", shipment.ID,
			"error", err,
		)
	}
	// 签收后顺手评估自动完成：队列可用走异步任务，关闭时就地评估，失败兜底由定时扫描负责
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueAutoCompleteCheck(queue.AutoCompleteCheckPayload{
			OrderID: shipment.OrderID,
			OrgID:   orgID,
		}); err != nil {
			logger.Warnw("auto_complete_enqueue_failed",
				"order_id", shipment.OrderID,
				"error", err,
			)
		}
	} else if s.autoComplete != nil {
		if _, err := s.autoComplete.EvaluateOrder(shipment.OrderID, orgID); err != nil && !errors.Is(err, ErrCriticalMilestonesIncomplete) {
			logger.Warnw("auto_complete_evaluate_failed",
				"order_id", shipment.OrderID,
				"error", err,
			)
		}
	}
	return shipment, nil
}

// GetOrderShippingStatus 订单发货汇总，只读无副作用
func (s *ShipmentService) GetOrderShippingStatus(orderID, orgID uint) (*OrderShippingStatus, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	items, err := s.orderItemRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	shipments, err := s.shipmentRepo.ListByOrder(orderID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	status := computeShippingStatus(items, shipments)
	return &status, nil
}

// ListShipments 订单发货单列表
func (s *ShipmentService) ListShipments(orderID, orgID uint) ([]models.Shipment, error) {
	return s.shipmentRepo.ListByOrder(orderID, orgID)
}

// syncShippingMilestones 发货单状态变化后的订单级联动：
// 整单发齐完成 SHIPPED 里程碑，整单签收完成 DELIVERED 里程碑，并同步订单宏观状态
func (s *ShipmentService) syncShippingMilestones(orderID, orgID uint, actor string) {
	status, err := s.GetOrderShippingStatus(orderID, orgID)
	if err != nil {
		logger.Warnw("shipping_milestone_sync_failed",
			"order_id", orderID,
			"org_id", orgID,
			"error", err,
		)
		return
	}

	if status.IsFullyShipped {
		notes := fmt.Sprintf("all items shipped across %d shipment(s)", status.ShippedShipments)
		if err := s.fulfillmentService.CompleteMilestone(orderID, orgID, constants.MilestoneShipped, actor, notes); err != nil && !errors.Is(err, ErrMilestoneNotFound) {
			logger.Warnw("shipping_milestone_complete_failed",
				"order_id", orderID,
				"milestone_code", constants.MilestoneShipped,
				"error", err,
			)
		}
		s.orderService.applyOrderStatus(orderID, orgID, constants.OrderStatusShipped, actor)
	}
	if status.IsFullyDelivered {
		notes := fmt.Sprintf("all items delivered across %d shipment(s)", status.DeliveredShipments)
		if err := s.fulfillmentService.CompleteMilestone(orderID, orgID, constants.MilestoneDelivered, actor, notes); err != nil && !errors.Is(err, ErrMilestoneNotFound) {
			logger.Warnw("shipping_milestone_complete_failed",
				"order_id", orderID,
				"milestone_code", constants.MilestoneDelivered,
				"error", err,
			)
		}
		s.orderService.applyOrderStatus(orderID, orgID, constants.OrderStatusDelivered, actor)
	}
}
