package repository

import (
	"errors"
	"time"

	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// ShipmentRepository 发货单数据访问接口
type ShipmentRepository interface {
	Create(shipment *models.Shipment) error
	CreateItems(items []models.ShipmentItem) error
	GetByID(id, orgID uint) (*models.Shipment, error)
	ListByOrder(orderID, orgID uint) ([]models.Shipment, error)
	SumShippedQuantity(orderItemID uint) (int64, error)
	CountByOrgInYear(orgID uint, year int) (int64, error)
	Update(shipment *models.Shipment) error
	Delete(id uint) error
}

// GormShipmentRepository GORM 实现
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建发货单仓库
func NewShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create 创建发货单
func (r *GormShipmentRepository) Create(shipment *models.Shipment) error {
	return r.db.Create(shipment).Error
}

// CreateItems 批量创建发货明细
func (r *GormShipmentRepository) CreateItems(items []models.ShipmentItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// GetByID 根据 ID 获取组织下的发货单
func (r *GormShipmentRepository) GetByID(id, orgID uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.Preload("Items").
		Where("id = ? AND org_id = ?", id, orgID).
		First(&shipment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// ListByOrder 获取订单的全部发货单
func (r *GormShipmentRepository) ListByOrder(orderID, orgID uint) ([]models.Shipment, error) {
	var shipments []models.Shipment
	if err := r.db.Preload("Items").
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Order("id asc").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

// SumShippedQuantity 统计订单项在所有发货单中的累计发货数量（不区分发货单状态）
func (r *GormShipmentRepository) SumShippedQuantity(orderItemID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.ShipmentItem{}).
		Where("order_item_id = ?", orderItemID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountByOrgInYear 统计组织在指定年份内创建的发货单数量（发货单号序列用）
func (r *GormShipmentRepository) CountByOrgInYear(orgID uint, year int) (int64, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var count int64
	if err := r.db.Model(&models.Shipment{}).
		Where("org_id = ? AND created_at >= ? AND created_at < ?", orgID, start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update 保存发货单的全部字段
func (r *GormShipmentRepository) Update(shipment *models.Shipment) error {
	return r.db.Save(shipment).Error
}

// Delete 物理删除发货单及其明细（仅用于明细写入失败后的补偿回滚）
func (r *GormShipmentRepository) Delete(id uint) error {
	if err := r.db.Unscoped().
		Where("shipment_id = ?", id).
		Delete(&models.ShipmentItem{}).Error; err != nil {
		return err
	}
	return r.db.Unscoped().Delete(&models.Shipment{}, id).Error
}
