package repository

import (
	"errors"

	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// MilestoneRepository 履约里程碑数据访问接口
type MilestoneRepository interface {
	CreateBatch(milestones []models.FulfillmentMilestone) error
	GetByOrderAndCode(orderID, orgID uint, code string) (*models.FulfillmentMilestone, error)
	ListByOrder(orderID, orgID uint) ([]models.FulfillmentMilestone, error)
	CountByOrder(orderID, orgID uint) (int64, error)
	Update(milestone *models.FulfillmentMilestone) error
	WithTx(tx *gorm.DB) *GormMilestoneRepository
}

// GormMilestoneRepository GORM 实现
type GormMilestoneRepository struct {
	db *gorm.DB
}

// NewMilestoneRepository 创建里程碑仓库
func NewMilestoneRepository(db *gorm.DB) *GormMilestoneRepository {
	return &GormMilestoneRepository{db: db}
}

// WithTx 绑定事务
func (r *GormMilestoneRepository) WithTx(tx *gorm.DB) *GormMilestoneRepository {
	if tx == nil {
		return r
	}
	return &GormMilestoneRepository{db: tx}
}

// CreateBatch 批量创建里程碑
func (r *GormMilestoneRepository) CreateBatch(milestones []models.FulfillmentMilestone) error {
	if len(milestones) == 0 {
		return nil
	}
	return r.db.Create(&milestones).Error
}

// GetByOrderAndCode 按订单与编码获取里程碑
func (r *GormMilestoneRepository) GetByOrderAndCode(orderID, orgID uint, code string) (*models.FulfillmentMilestone, error) {
	var milestone models.FulfillmentMilestone
	if err := r.db.
		Where("order_id = ? AND org_id = ? AND milestone_code = ?", orderID, orgID, code).
		First(&milestone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &milestone, nil
}

// ListByOrder 获取订单的全部里程碑（按排序权重升序）
func (r *GormMilestoneRepository) ListByOrder(orderID, orgID uint) ([]models.FulfillmentMilestone, error) {
	var milestones []models.FulfillmentMilestone
	if err := r.db.
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Order("sort_order asc").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// CountByOrder 统计订单的里程碑数量
func (r *GormMilestoneRepository) CountByOrder(orderID, orgID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.FulfillmentMilestone{}).
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update 保存里程碑的全部字段
func (r *GormMilestoneRepository) Update(milestone *models.FulfillmentMilestone) error {
	return r.db.Save(milestone).Error
}
