package constants

// 订单宏观状态常量
const (
	OrderStatusDraft      = "draft"
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// 订单支付状态常量
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
)

// 履约里程碑编码常量
const (
	MilestoneOrderConfirmed      = "ORDER_CONFIRMED"
	MilestoneProductionCompleted = "PRODUCTION_COMPLETED"
	MilestoneQualityApproved     = "QUALITY_APPROVED"
	MilestoneReadyToShip         = "READY_TO_SHIP"
	MilestoneShipped             = "SHIPPED"
	MilestoneDelivered           = "DELIVERED"
	MilestoneCompleted           = "COMPLETED"
)

// 旧版里程碑编码别名常量（历史数据兼容）
const (
	MilestoneLegacyManufacturingCompleted = "MANUFACTURING_COMPLETED"
	MilestoneLegacyQualityCheckPassed     = "QUALITY_CHECK_PASSED"
)

// 里程碑状态常量
const (
	MilestoneStatusPending    = "pending"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusCompleted  = "completed"
	MilestoneStatusBlocked    = "blocked"
)

// 里程碑类型常量
const (
	MilestoneTypePreparation = "preparation"
	MilestoneTypeProduction  = "production"
	MilestoneTypeQuality     = "quality"
	MilestoneTypeLogistics   = "logistics"
	MilestoneTypeClosing     = "closing"
)

// 履约事件编码常量
const (
	EventCodeFulfillmentStarted = "FULFILLMENT_STARTED"
	EventCodeMilestoneUpdated   = "MILESTONE_UPDATED"
	EventCodeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventCodeReadyForPackaging  = "READY_FOR_PACKAGING"
	EventCodeShipped            = "SHIPPED"
	EventCodeDelivered          = "DELIVERED"
	EventCodeQualityCheckPassed = "QUALITY_CHECK_PASSED"
	EventCodeQualityCheckFailed = "QUALITY_CHECK_FAILED"
	EventCodeCompleted          = "COMPLETED"
	EventCodeNotificationSent   = "NOTIFICATION_SENT"
)

// 履约事件类型常量
const (
	EventTypeStatusChange = "status_change"
	EventTypeMilestone    = "milestone"
	EventTypeQualityCheck = "quality_check"
	EventTypeShipment     = "shipment"
	EventTypeDelivery     = "delivery"
	EventTypeCompletion   = "completion"
	EventTypeNotification = "notification"
)

// 发货单状态常量
const (
	ShipmentStatusPreparing = "preparing"
	ShipmentStatusShipped   = "shipped"
	ShipmentStatusDelivered = "delivered"
)

// 质检结果常量
const (
	QualityResultPass = "pass"
	QualityResultFail = "fail"
)

// 关键质检类型常量
const (
	QualityCheckTypeFinalInspection = "final_inspection"
	QualityCheckTypePreShipment     = "pre_shipment"
)

// 订单完成方式常量
const (
	CompletionTypeManual    = "manual"
	CompletionTypeAutomatic = "automatic"
)

// 工单状态常量
const (
	WorkOrderStatusPending    = "pending"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusCompleted  = "completed"
	WorkOrderStatusCancelled  = "cancelled"
)

// 履约整体状态常量
const (
	OverallStatusNotStarted  = "NOT_STARTED"
	OverallStatusPreparation = "PREPARATION"
	OverallStatusReadyToShip = "READY_TO_SHIP"
	OverallStatusShipped     = "SHIPPED"
	OverallStatusDelivered   = "DELIVERED"
	OverallStatusCompleted   = "COMPLETED"
	OverallStatusException   = "EXCEPTION"
)

// 阻塞项严重级别常量
const (
	BlockerSeverityHigh     = "high"
	BlockerSeverityCritical = "critical"
)

// 履约优先级常量
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// 系统操作者标识常量
const (
	ActorSystem = "system"
)

// DefaultOrgID 默认组织 ID，身份头缺省时使用
const DefaultOrgID uint = 1

// 队列常量
const (
	QueueDefault           = "default"
	TaskAutoCompleteCheck  = "fulfillment:auto_complete"
	TaskShipmentNotify     = "shipment:notify_shipped"
	TaskDeliveryNotify     = "shipment:notify_delivered"
	TaskCompletionFollowUp = "order:completion_follow_up"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "ff"
)
