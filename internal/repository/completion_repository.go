package repository

import (
	"errors"

	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// CompletionRepository 订单完成记录数据访问接口
type CompletionRepository interface {
	Create(record *models.CompletionRecord) error
	GetByOrderID(orderID, orgID uint) (*models.CompletionRecord, error)
	WithTx(tx *gorm.DB) *GormCompletionRepository
}

// GormCompletionRepository GORM 实现
type GormCompletionRepository struct {
	db *gorm.DB
}

// NewCompletionRepository 创建完成记录仓库
func NewCompletionRepository(db *gorm.DB) *GormCompletionRepository {
	return &GormCompletionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCompletionRepository) WithTx(tx *gorm.DB) *GormCompletionRepository {
	if tx == nil {
		return r
	}
	return &GormCompletionRepository{db: tx}
}

// Create 创建完成记录
func (r *GormCompletionRepository) Create(record *models.CompletionRecord) error {
	return r.db.Create(record).Error
}

// GetByOrderID 按订单获取完成记录
func (r *GormCompletionRepository) GetByOrderID(orderID, orgID uint) (*models.CompletionRecord, error) {
	var record models.CompletionRecord
	if err := r.db.
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
