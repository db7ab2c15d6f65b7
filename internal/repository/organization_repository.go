package repository

import (
	"errors"

	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// OrganizationRepository 组织数据访问接口
type OrganizationRepository interface {
	GetByID(id uint) (*models.Organization, error)
}

// GormOrganizationRepository GORM 实现
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository 创建组织仓库
func NewOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// GetByID 根据 ID 获取组织
func (r *GormOrganizationRepository) GetByID(id uint) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
