package repository

import (
	"errors"

	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id, orgID uint) (*models.Order, error)
	GetByIDs(ids []uint, orgID uint) ([]models.Order, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	ListDeliveredWithoutCompletion(limit int) ([]models.Order, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
		items[i].OrgID = order.OrgID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取组织下的订单
func (r *GormOrderRepository) GetByID(id, orgID uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDs 批量获取组织下的订单
func (r *GormOrderRepository) GetByIDs(ids []uint, orgID uint) ([]models.Order, error) {
	var orders []models.Order
	if len(ids) == 0 {
		return orders, nil
	}
	if err := r.db.
		Where("id IN ? AND org_id = ?", ids, orgID).
		Order("id asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus 更新订单状态
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// ListDeliveredWithoutCompletion 获取已送达但尚无完成记录的订单（自动完成巡检用）
func (r *GormOrderRepository) ListDeliveredWithoutCompletion(limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.
		Where("status = ?", constants.OrderStatusDelivered).
		Where("NOT EXISTS (SELECT 1 FROM completion_records WHERE completion_records.order_id = orders.id)").
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
