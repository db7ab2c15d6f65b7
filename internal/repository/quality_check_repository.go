package repository

import (
	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// QualityCheckRepository 质检记录数据访问接口
// 说明：质检记录只创建，不提供修改与删除。
type QualityCheckRepository interface {
	Create(check *models.QualityCheck) error
	ListByOrder(orderID, orgID uint) ([]models.QualityCheck, error)
	ListByOrderAndTypes(orderID, orgID uint, checkTypes []string) ([]models.QualityCheck, error)
	WithTx(tx *gorm.DB) *GormQualityCheckRepository
}

// GormQualityCheckRepository GORM 实现
type GormQualityCheckRepository struct {
	db *gorm.DB
}

// NewQualityCheckRepository 创建质检仓库
func NewQualityCheckRepository(db *gorm.DB) *GormQualityCheckRepository {
	return &GormQualityCheckRepository{db: db}
}

// WithTx 绑定事务
func (r *GormQualityCheckRepository) WithTx(tx *gorm.DB) *GormQualityCheckRepository {
	if tx == nil {
		return r
	}
	return &GormQualityCheckRepository{db: tx}
}

// Create 创建质检记录
func (r *GormQualityCheckRepository) Create(check *models.QualityCheck) error {
	return r.db.Create(check).Error
}

// ListByOrder 获取订单的全部质检记录
func (r *GormQualityCheckRepository) ListByOrder(orderID, orgID uint) ([]models.QualityCheck, error) {
	var checks []models.QualityCheck
	if err := r.db.
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Order("id asc").
		Find(&checks).Error; err != nil {
		return nil, err
	}
	return checks, nil
}

// ListByOrderAndTypes 获取订单下指定类型的质检记录
func (r *GormQualityCheckRepository) ListByOrderAndTypes(orderID, orgID uint, checkTypes []string) ([]models.QualityCheck, error) {
	var checks []models.QualityCheck
	if len(checkTypes) == 0 {
		return checks, nil
	}
	if err := r.db.
		Where("order_id = ? AND org_id = ? AND check_type IN ?", orderID, orgID, checkTypes).
		Order("id asc").
		Find(&checks).Error; err != nil {
		return nil, err
	}
	return checks, nil
}
