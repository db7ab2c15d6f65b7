package models

import (
	"time"
)

// FulfillmentMilestone 履约里程碑表
type FulfillmentMilestone struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                                // 主键
	OrgID         uint       `gorm:"index;not null" json:"org_id"`                                        // 组织ID
	OrderID       uint       `gorm:"uniqueIndex:idx_milestone_order_code;not null" json:"order_id"`       // 订单ID
	MilestoneCode string     `gorm:"uniqueIndex:idx_milestone_order_code;not null" json:"milestone_code"` // 里程碑编码
	MilestoneName string     `gorm:"not null" json:"milestone_name"`                                      // 里程碑名称
	Type          string     `gorm:"not null" json:"type"`                                                // 里程碑类型
	Status        string     `gorm:"index;not null" json:"status"`                                        // 里程碑状态
	SortOrder     int        `gorm:"not null;default:0;index" json:"sort_order"`                          // 排序权重
	PlannedDate   *time.Time `json:"planned_date,omitempty"`                                              // 计划日期
	CompletedAt   *time.Time `gorm:"index" json:"completed_at,omitempty"`                                 // 完成时间
	CompletedBy   string     `json:"completed_by,omitempty"`                                              // 完成人标识
	BlockedReason string     `gorm:"type:text" json:"blocked_reason,omitempty"`                           // 阻塞原因
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`                                    // 备注
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                                             // 更新时间
}

// TableName 指定表名
func (FulfillmentMilestone) TableName() string {
	return "fulfillment_milestones"
}
