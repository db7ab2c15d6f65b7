package service

import (
	"strings"
	"time"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/logger"
	"github.com/fulfill-next/internal/models"
	"github.com/fulfill-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单宏观状态服务
type OrderService struct {
	orderRepo repository.OrderRepository
	eventRepo repository.EventRepository
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, eventRepo repository.EventRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
	}
}

// GetOrder 获取订单详情
func (s *OrderService) GetOrder(orderID, orgID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateOrderStatus 按状态机推进订单宏观状态
func (s *OrderService) UpdateOrderStatus(orderID, orgID uint, targetStatus, actor string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := strings.TrimSpace(targetStatus)
	if target == "" {
		return nil, ErrOrderStatusInvalid
	}
	if order.Status == target {
		// 同状态重复提交视为幂等确认，不写库不落事件
		return order, nil
	}
	if err := ValidateTransition(order.Status, target); err != nil {
		return nil, err
	}

	if err := s.writeStatusChange(order, target, actor); err != nil {
		logger.Errorw("order_status_update_failed",
			"order_id", order.ID,
			"org_id", order.OrgID,
			"target_status", target,
			"error", err,
		)
		return nil, ErrOrderUpdateFailed
	}
	return order, nil
}

// BulkUpdateResult 批量更新单个订单的处理结果
type BulkUpdateResult struct {
	OrderID uint   `json:"order_id"`
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkUpdateOrderStatus 批量推进订单状态，逐单校验并返回逐单结果
func (s *OrderService) BulkUpdateOrderStatus(orderIDs []uint, orgID uint, targetStatus, actor string) ([]BulkUpdateResult, error) {
	if len(orderIDs) == 0 {
		return nil, ErrOrderIDsRequired
	}
	target := strings.TrimSpace(targetStatus)
	if target == "" {
		return nil, ErrOrderStatusInvalid
	}

	results := make([]BulkUpdateResult, 0, len(orderIDs))
	for _, orderID := range orderIDs {
		order, err := s.UpdateOrderStatus(orderID, orgID, target, actor)
		if err != nil {
			results = append(results, BulkUpdateResult{
				OrderID: orderID,
				Success: false,
				Error:   err.Error(),
			})
			continue
		}
		results = append(results, BulkUpdateResult{
			OrderID: orderID,
			Success: true,
			Status:  order.Status,
		})
	}
	return results, nil
}

// applyOrderStatus 内部联动写入：当前状态到不了目标时跳过并记录，不向调用方报错
func (s *OrderService) applyOrderStatus(orderID, orgID uint, target, actor string) {
	order, err := s.orderRepo.GetByID(orderID, orgID)
	if err != nil {
		logger.Warnw("order_status_sync_fetch_failed",
			"order_id", orderID,
			"org_id", orgID,
			"error", err,
		)
		return
	}
	if order == nil {
		return
	}
	if order.Status == target {
		return
	}
	if !IsValidTransition(order.Status, target) {
		logger.Debugw("order_status_sync_skipped",
			"order_id", orderID,
			"current_status", order.Status,
			"target_status", target,
		)
		return
	}
	if err := s.writeStatusChange(order, target, actor); err != nil {
		logger.Warnw("order_status_sync_write_failed",
			"order_id", orderID,
			"target_status", target,
			"error", err,
		)
	}
}

// writeStatusChange 事务内写状态并追加状态变更事件
func (s *OrderService) writeStatusChange(order *models.Order, target, actor string) error {
	now := time.Now()
	previous := order.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, target, map[string]interface{}{
			"updated_at": now,
		}); err != nil {
			return err
		}
		return s.eventRepo.WithTx(tx).Append(&models.FulfillmentEvent{
			OrgID:       order.OrgID,
			OrderID:     order.ID,
			EventCode:   constants.EventCodeOrderStatusChanged,
			EventType:   constants.EventTypeStatusChange,
			StatusAfter: target,
			ActorUserID: actor,
			Metadata: models.JSON{
				"previous_status": previous,
				"new_status":      target,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}
	order.Status = target
	order.UpdatedAt = now
	return nil
}
