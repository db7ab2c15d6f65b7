package models

import (
	"time"
)

// WorkOrder 生产工单表（由外部生产系统维护，这里仅读取状态）
type WorkOrder struct {
	ID              uint       `gorm:"primarykey" json:"id"`                          // 主键
	OrgID           uint       `gorm:"index;not null" json:"org_id"`                  // 组织ID
	OrderID         uint       `gorm:"index;not null" json:"order_id"`                // 订单ID
	OrderItemID     uint       `gorm:"index;not null" json:"order_item_id"`           // 订单项ID
	WorkOrderNumber string     `gorm:"uniqueIndex;not null" json:"work_order_number"` // 工单编号
	Status          string     `gorm:"index;not null" json:"status"`                  // 工单状态
	CompletedAt     *time.Time `gorm:"index" json:"completed_at,omitempty"`           // 完成时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                       // 更新时间
}

// TableName 指定表名
func (WorkOrder) TableName() string {
	return "work_orders"
}
