package repository

import (
	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// WorkOrderRepository 生产工单数据访问接口
type WorkOrderRepository interface {
	ListByOrderItemIDs(orderItemIDs []uint) ([]models.WorkOrder, error)
}

// GormWorkOrderRepository GORM 实现
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository 创建工单仓库
func NewWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

// ListByOrderItemIDs 获取订单项关联的全部工单
func (r *GormWorkOrderRepository) ListByOrderItemIDs(orderItemIDs []uint) ([]models.WorkOrder, error) {
	var workOrders []models.WorkOrder
	if len(orderItemIDs) == 0 {
		return workOrders, nil
	}
	if err := r.db.
		Where("order_item_id IN ?", orderItemIDs).
		Order("id asc").
		Find(&workOrders).Error; err != nil {
		return nil, err
	}
	return workOrders, nil
}
