package repository

import (
	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// EventRepository 履约事件数据访问接口
// 说明：事件只追加，不提供修改与删除。
type EventRepository interface {
	Append(event *models.FulfillmentEvent) error
	ListByOrder(orderID, orgID uint) ([]models.FulfillmentEvent, error)
	List(filter EventListFilter) ([]models.FulfillmentEvent, int64, error)
	ListRecentByOrg(orgID uint, limit int) ([]models.FulfillmentEvent, error)
	CountByOrderAndType(orderID, orgID uint, eventType string) (int64, error)
	WithTx(tx *gorm.DB) *GormEventRepository
}

// GormEventRepository GORM 实现
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓库
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEventRepository) WithTx(tx *gorm.DB) *GormEventRepository {
	if tx == nil {
		return r
	}
	return &GormEventRepository{db: tx}
}

// Append 追加事件
func (r *GormEventRepository) Append(event *models.FulfillmentEvent) error {
	return r.db.Create(event).Error
}

// ListByOrder 按时间顺序获取订单的全部事件
func (r *GormEventRepository) ListByOrder(orderID, orgID uint) ([]models.FulfillmentEvent, error) {
	var events []models.FulfillmentEvent
	if err := r.db.
		Where("order_id = ? AND org_id = ?", orderID, orgID).
		Order("id asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// List 分页查询事件
func (r *GormEventRepository) List(filter EventListFilter) ([]models.FulfillmentEvent, int64, error) {
	var events []models.FulfillmentEvent
	query := r.db.Model(&models.FulfillmentEvent{}).Where("org_id = ?", filter.OrgID)

	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.EventCode != "" {
		query = query.Where("event_code = ?", filter.EventCode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListRecentByOrg 获取组织最近的事件
func (r *GormEventRepository) ListRecentByOrg(orgID uint, limit int) ([]models.FulfillmentEvent, error) {
	var events []models.FulfillmentEvent
	if limit <= 0 {
		limit = 10
	}
	if err := r.db.
		Where("org_id = ?", orgID).
		Order("id desc").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// CountByOrderAndType 统计订单下某类型事件数量
func (r *GormEventRepository) CountByOrderAndType(orderID, orgID uint, eventType string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.FulfillmentEvent{}).
		Where("order_id = ? AND org_id = ? AND event_type = ?", orderID, orgID, eventType).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
