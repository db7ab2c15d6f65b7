package repository

import (
	"errors"

	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// OrderItemRepository 订单项数据访问接口
type OrderItemRepository interface {
	GetByID(id, orderID, orgID uint) (*models.OrderItem, error)
	ListByOrder(orderID, orgID uint) ([]models.OrderItem, error)
}

// GormOrderItemRepository GORM 实现
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓库
func NewOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// GetByID 获取指定订单下的订单项
func (r *GormOrderItemRepository) GetByID(id, orderID, orgID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.
		Where("id = ? AND order_id = ? AND org_id = ?", id, orderID, orgID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByOrder 获取订单的全部订单项
func (r *GormOrderItemRepository) ListByOrder(orderID, orgID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
