package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/integration"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/provider"
	"github.com/fulfill-next/internal/queue"
	"github.com/fulfill-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAutoCompleteCheck, c.handleAutoCompleteCheck)
	mux.HandleFunc(queue.TaskShipmentNotify, c.handleShipmentNotify)
	mux.HandleFunc(queue.TaskDeliveryNotify, c.handleDeliveryNotify)
	mux.HandleFunc(queue.TaskCompletionFollowUp, c.handleCompletionFollowUp)
}

func (c *Consumer) handleAutoCompleteCheck(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_auto_complete_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AutoCompleteCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_auto_complete_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.OrgID == 0 {
		logger.Debugw("worker_auto_complete_skip_invalid_payload", "order_id", payload.OrderID, "org_id", payload.OrgID)
		return nil
	}
	if c.AutoCompleteService == nil {
		logger.Warnw("worker_auto_complete_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	result, err := c.AutoCompleteService.EvaluateOrder(payload.OrderID, payload.OrgID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_auto_complete_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrCompletionExists):
			logger.Debugw("worker_auto_complete_skip_already_completed", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrCriticalMilestonesIncomplete):
			// 规则满足但里程碑还没收敛，等兜底扫描下一轮再试
			logger.Debugw("worker_auto_complete_skip_milestones_incomplete", "order_id", payload.OrderID, "error", err)
			return nil
		default:
			logger.Warnw("worker_auto_complete_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	if result != nil && result.Completed {
		logger.Infow("worker_auto_complete_done", "order_id", payload.OrderID, "org_id", payload.OrgID)
	}
	return nil
}

func (c *Consumer) handleShipmentNotify(ctx context.Context, task *asynq.Task) error {
	return c.notifyShipmentEvent(ctx, task, constants.ShipmentStatusShipped, "worker_shipment_notify")
}

func (c *Consumer) handleDeliveryNotify(ctx context.Context, task *asynq.Task) error {
	return c.notifyShipmentEvent(ctx, task, constants.ShipmentStatusDelivered, "worker_delivery_notify")
}

// notifyShipmentEvent 发货与签收通知共用的处理流程，只是事件名不同
func (c *Consumer) notifyShipmentEvent(ctx context.Context, task *asynq.Task, event, logPrefix string) error {
	if c == nil || task == nil {
		logger.Debugw(logPrefix+"_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw(logPrefix+"_unmarshal_failed", "error", err)
		return err
	}
	if payload.ShipmentID == 0 || payload.OrgID == 0 {
		logger.Debugw(logPrefix+"_skip_invalid_payload", "shipment_id", payload.ShipmentID, "org_id", payload.OrgID)
		return nil
	}
	if c.ShipmentRepo == nil || c.Hub == nil || c.Hub.Notification == nil {
		logger.Warnw(logPrefix+"_skip_dependencies_nil", "shipment_id", payload.ShipmentID)
		return nil
	}
	shipment, err := c.ShipmentRepo.GetByID(payload.ShipmentID, payload.OrgID)
	if err != nil {
		logger.Warnw(logPrefix+"_fetch_shipment_failed", "shipment_id", payload.ShipmentID, "error", err)
		return err
	}
	if shipment == nil {
		logger.Debugw(logPrefix+"_skip_shipment_not_found", "shipment_id", payload.ShipmentID)
		return nil
	}
	notice := integration.ShipmentNotice{
		OrgID:          shipment.OrgID,
		OrderID:        shipment.OrderID,
		ShipmentID:     shipment.ID,
		ShipmentNumber: shipment.ShipmentNumber,
		TrackingNumber: shipment.TrackingNumber,
		Carrier:        shipment.Carrier,
		Event:          event,
	}
	if err := c.Hub.Notification.NotifyShipmentEvent(ctx, notice); err != nil {
		logger.Warnw(logPrefix+"_send_failed",
			"shipment_id", shipment.ID,
			"shipment_number", shipment.ShipmentNumber,
			"order_id", shipment.OrderID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleCompletionFollowUp(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_completion_follow_up_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CompletionFollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_completion_follow_up_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.OrgID == 0 {
		logger.Debugw("worker_completion_follow_up_skip_invalid_payload", "order_id", payload.OrderID, "org_id", payload.OrgID)
		return nil
	}
	if c.OrderRepo == nil || c.Hub == nil {
		logger.Warnw("worker_completion_follow_up_skip_dependencies_nil", "order_id", payload.OrderID)
		return nil
	}
	order, err := c.OrderRepo.GetByID(payload.OrderID, payload.OrgID)
	if err != nil {
		logger.Warnw("worker_completion_follow_up_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_completion_follow_up_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	notice := integration.CompletionNotice{
		OrgID:               payload.OrgID,
		OrderID:             order.ID,
		OrderNo:             order.OrderNo,
		CompletionRecordID:  payload.CompletionRecordID,
		GenerateInvoice:     payload.GenerateInvoice,
		CaptureFinalPayment: payload.CaptureFinalPayment,
	}

	// 完成后的集成点都是尽力而为：失败只记日志，订单完成状态不回滚，
	// 重试由各协作方自己负责
	if c.Hub.Billing != nil {
		if err := c.Hub.Billing.HandleOrderCompleted(ctx, notice); err != nil {
			logger.Warnw("worker_completion_follow_up_billing_failed", "order_id", order.ID, "error", err)
		}
	}
	if c.Hub.Inventory != nil {
		if err := c.Hub.Inventory.HandleOrderCompleted(ctx, notice); err != nil {
			logger.Warnw("worker_completion_follow_up_inventory_failed", "order_id", order.ID, "error", err)
		}
	}
	if c.Hub.Analytics != nil {
		if err := c.Hub.Analytics.HandleOrderCompleted(ctx, notice); err != nil {
			logger.Warnw("worker_completion_follow_up_analytics_failed", "order_id", order.ID, "error", err)
		}
	}
	if c.Hub.Notification != nil {
		if err := c.Hub.Notification.NotifyOrderCompleted(ctx, notice); err != nil {
			logger.Warnw("worker_completion_follow_up_notify_failed", "order_id", order.ID, "error", err)
		}
	}
	return nil
}
