package queue

import (
	"encoding/json"

	"github.com/fulfill-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAutoCompleteCheck 自动完成评估任务
	TaskAutoCompleteCheck = constants.TaskAutoCompleteCheck
	// TaskShipmentNotify 发货通知任务
	TaskShipmentNotify = constants.TaskShipmentNotify
	// TaskDeliveryNotify 签收通知任务
	TaskDeliveryNotify = constants.TaskDeliveryNotify
	// TaskCompletionFollowUp 完成后续处理任务
	TaskCompletionFollowUp = constants.TaskCompletionFollowUp
)

// AutoCompleteCheckPayload 自动完成评估任务载荷
type AutoCompleteCheckPayload struct {
	OrderID uint `json:"order_id"`
	OrgID   uint `json:"org_id"`
}

// ShipmentNotifyPayload 发货通知任务载荷
type ShipmentNotifyPayload struct {
	ShipmentID     uint   `json:"shipment_id"`
	OrderID        uint   `json:"order_id"`
	OrgID          uint   `json:"org_id"`
	TrackingNumber string `json:"tracking_number"`
}

// DeliveryNotifyPayload 签收通知任务载荷
type DeliveryNotifyPayload struct {
	ShipmentID uint `json:"shipment_id"`
	OrderID    uint `json:"order_id"`
	OrgID      uint `json:"org_id"`
}

// CompletionFollowUpPayload 完成后续处理任务载荷
type CompletionFollowUpPayload struct {
	OrderID             uint `json:"order_id"`
	OrgID               uint `json:"org_id"`
	CompletionRecordID  uint `json:"completion_record_id"`
	GenerateInvoice     bool `json:"generate_invoice"`
	CaptureFinalPayment bool `json:"capture_final_payment"`
}

// NewAutoCompleteCheckTask 创建自动完成评估任务
func NewAutoCompleteCheckTask(payload AutoCompleteCheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAutoCompleteCheck, body), nil
}

// NewShipmentNotifyTask 创建发货通知任务
func NewShipmentNotifyTask(payload ShipmentNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentNotify, body), nil
}

// NewDeliveryNotifyTask 创建签收通知任务
func NewDeliveryNotifyTask(payload DeliveryNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliveryNotify, body), nil
}

// NewCompletionFollowUpTask 创建完成后续处理任务
func NewCompletionFollowUpTask(payload CompletionFollowUpPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompletionFollowUp, body), nil
}
