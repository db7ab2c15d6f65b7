package integration

import (
	"context"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"
)

// ShipmentNotice 发货/签收通知上下文
type ShipmentNotice struct {
	OrgID          uint   `json:"org_id"`
	OrderID        uint   `json:"order_id"`
	ShipmentID     uint   `json:"shipment_id"`
	ShipmentNumber string `json:"shipment_number"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	Event          string `json:"event"` // shipped / delivered
}

// CompletionNotice 订单完成后交给协作方的最小上下文
type CompletionNotice struct {
	OrgID               uint   `json:"org_id"`
	OrderID             uint   `json:"order_id"`
	OrderNo             string `json:"order_no"`
	CompletionRecordID  uint   `json:"completion_record_id"`
	GenerateInvoice     bool   `json:"generate_invoice"`
	CaptureFinalPayment bool   `json:"capture_final_payment"`
}

// Billing 计费协作方：开票与尾款扣款由对方系统自行保证幂等
type Billing interface {
	HandleOrderCompleted(ctx context.Context, notice CompletionNotice) error
}

// Notification 客户通知协作方
type Notification interface {
	NotifyShipmentEvent(ctx context.Context, notice ShipmentNotice) error
	NotifyOrderCompleted(ctx context.Context, notice CompletionNotice) error
}

// Inventory 库存协作方：完成后释放预留
type Inventory interface {
	HandleOrderCompleted(ctx context.Context, notice CompletionNotice) error
}

// Analytics 数据分析协作方
type Analytics interface {
	HandleOrderCompleted(ctx context.Context, notice CompletionNotice) error
}

// Hub 下游集成点集合，调用方只管触发，失败不回滚业务
type Hub struct {
	Billing      Billing
	Notification Notification
	Inventory    Inventory
	Analytics    Analytics
}

// NewHub 创建默认集成点（全部为本地日志实现）
func NewHub(eventRepo repository.EventRepository) *Hub {
	return &Hub{
		Billing:      &logBilling{},
		Notification: &eventNotification{eventRepo: eventRepo},
		Inventory:    &logInventory{},
		Analytics:    &logAnalytics{},
	}
}

type logBilling struct{}

func (b *logBilling) HandleOrderCompleted(_ context.Context, notice CompletionNotice) error {
	logger.Infow("integration_billing_order_completed",
		"order_id", notice.OrderID,
		"org_id", notice.OrgID,
		"generate_invoice", notice.GenerateInvoice,
		"capture_final_payment", notice.CaptureFinalPayment,
	)
	return nil
}

type logInventory struct{}

func (i *logInventory) HandleOrderCompleted(_ context.Context, notice CompletionNotice) error {
	logger.Infow("integration_inventory_order_completed",
		"order_id", notice.OrderID,
		"org_id", notice.OrgID,
	)
	return nil
}

type logAnalytics struct{}

func (a *logAnalytics) HandleOrderCompleted(_ context.Context, notice CompletionNotice) error {
	logger.Infow("integration_analytics_order_completed",
		"order_id", notice.OrderID,
		"org_id", notice.OrgID,
	)
	return nil
}

// eventNotification 默认通知实现：落一条 notification 事件代替真实外呼，
// 自动完成规则里的 notifications_sent 条件读取的就是这些事件。
type eventNotification struct {
	eventRepo repository.EventRepository
}

func (n *eventNotification) NotifyShipmentEvent(_ context.Context, notice ShipmentNotice) error {
	if n.eventRepo == nil {
		logger.Warnw("integration_notification_event_repo_nil", "order_id", notice.OrderID)
		return nil
	}
	return n.eventRepo.Append(&models.FulfillmentEvent{
		OrgID:       notice.OrgID,
		OrderID:     notice.OrderID,
		EventCode:   constants.EventCodeNotificationSent,
		EventType:   constants.EventTypeNotification,
		ActorUserID: constants.ActorSystem,
		Metadata: models.JSON{
			"channel":         "customer",
			"notice":          notice.Event,
			"shipment_id":     notice.ShipmentID,
			"shipment_number": notice.ShipmentNumber,
			"tracking_number": notice.TrackingNumber,
		},
	})
}

func (n *eventNotification) NotifyOrderCompleted(_ context.Context, notice CompletionNotice) error {
	if n.eventRepo == nil {
		logger.Warnw("integration_notification_event_repo_nil", "order_id", notice.OrderID)
		return nil
	}
	return n.eventRepo.Append(&models.FulfillmentEvent{
		OrgID:       notice.OrgID,
		OrderID:     notice.OrderID,
		EventCode:   constants.EventCodeNotificationSent,
		EventType:   constants.EventTypeNotification,
		ActorUserID: constants.ActorSystem,
		Metadata: models.JSON{
			"channel":  "customer",
			"notice":   "order_completed",
			"order_no": notice.OrderNo,
		},
	})
}
