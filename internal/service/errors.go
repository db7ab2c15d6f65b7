package service

import "errors"

// 订单相关错误
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrOrderFetchFailed       = errors.New("order fetch failed")
	ErrOrderUpdateFailed      = errors.New("order update failed")
	ErrOrderStatusInvalid     = errors.New("order status invalid")
	ErrOrderTransitionInvalid = errors.New("order status transition not allowed")
	ErrOrderIDsRequired       = errors.New("order ids required")
	ErrOrderItemNotFound      = errors.New("order item not found")
)

// 履约里程碑相关错误
var (
	ErrFulfillmentStarted     = errors.New("fulfillment already started")
	ErrMilestoneNotFound      = errors.New("milestone not found")
	ErrMilestoneStatusInvalid = errors.New("milestone status invalid")
	ErrBlockedReasonRequired  = errors.New("blocked reason required")
)

// 发货相关错误
var (
	ErrShipmentNotFound         = errors.New("shipment not found")
	ErrShipmentItemsRequired    = errors.New("shipment items required")
	ErrShipmentQuantityExceeded = errors.New("shipment quantity exceeds remaining")
	ErrShipmentStatusInvalid    = errors.New("shipment status invalid")
	ErrShipmentCreateFailed     = errors.New("shipment create failed")
)

// 质检相关错误
var (
	ErrQualityResultInvalid = errors.New("quality check result invalid")
	ErrQualityCreateFailed  = errors.New("quality check create failed")
)

// 订单完成相关错误
var (
	ErrCompletionExists             = errors.New("completion record already exists")
	ErrCompletionNotFound           = errors.New("completion record not found")
	ErrCompletionCreateFailed       = errors.New("completion create failed")
	ErrCriticalMilestonesIncomplete = errors.New("critical milestones incomplete")
)

// 组织相关错误
var (
	ErrOrganizationNotFound = errors.New("organization not found")
)
