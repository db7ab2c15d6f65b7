package repository

import (
	"github.com/fulfill-next/internal/constants"
	"github.com/fulfill-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 履约仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetFulfillmentOverview(orgID uint) (FulfillmentOverviewRow, error)
	GetOrderStatusCounts(orgID uint) ([]StatusCountRow, error)
	GetShipmentStatusCounts(orgID uint) ([]StatusCountRow, error)
	GetAverageProgress(orgID uint) (float64, error)
}

// FulfillmentOverviewRow 履约总览原始统计结果
type FulfillmentOverviewRow struct {
	OrdersInFulfillment int64
	CompletedOrders     int64
	BlockedMilestones   int64
}

// StatusCountRow 按状态分组的计数行
type StatusCountRow struct {
	Status string
	Count  int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetFulfillmentOverview 获取履约总览统计
func (r *GormDashboardRepository) GetFulfillmentOverview(orgID uint) (FulfillmentOverviewRow, error) {
	result := FulfillmentOverviewRow{}

	if err := r.db.Model(&models.FulfillmentMilestone{}).
		Where("org_id = ?", orgID).
		Where("NOT EXISTS (SELECT 1 FROM completion_records WHERE completion_records.order_id = fulfillment_milestones.order_id)").
		Distinct("order_id").
		Count(&result.OrdersInFulfillment).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.CompletionRecord{}).
		Where("org_id = ?", orgID).
		Count(&result.CompletedOrders).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.FulfillmentMilestone{}).
		Where("org_id = ? AND status = ?", orgID, constants.MilestoneStatusBlocked).
		Count(&result.BlockedMilestones).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetOrderStatusCounts 按状态统计组织下的订单数量
func (r *GormDashboardRepository) GetOrderStatusCounts(orgID uint) ([]StatusCountRow, error) {
	var rows []StatusCountRow
	if err := r.db.Model(&models.Order{}).
		Select("status AS status, COUNT(*) AS count").
		Where("org_id = ?", orgID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetShipmentStatusCounts 按状态统计组织下的发货单数量
func (r *GormDashboardRepository) GetShipmentStatusCounts(orgID uint) ([]StatusCountRow, error) {
	var rows []StatusCountRow
	if err := r.db.Model(&models.Shipment{}).
		Select("status AS status, COUNT(*) AS count").
		Where("org_id = ?", orgID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetAverageProgress 计算组织下各订单里程碑完成率的平均值（百分比）
func (r *GormDashboardRepository) GetAverageProgress(orgID uint) (float64, error) {
	subquery := r.db.Model(&models.FulfillmentMilestone{}).
		Select("SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) * 100.0 / COUNT(*) AS ratio", constants.MilestoneStatusCompleted).
		Where("org_id = ?", orgID).
		Group("order_id")

	var avg *float64
	if err := r.db.Table("(?) AS order_progress", subquery).
		Select("AVG(ratio)").
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
