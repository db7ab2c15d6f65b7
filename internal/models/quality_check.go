package models

import (
	"time"
)

// QualityCheck 质检记录表（创建后不再修改）
type QualityCheck struct {
	ID            uint        `gorm:"primarykey" json:"id"`                     // 主键
	OrgID         uint        `gorm:"index;not null" json:"org_id"`             // 组织ID
	OrderID       uint        `gorm:"index;not null" json:"order_id"`           // 订单ID
	OrderItemID   *uint       `gorm:"index" json:"order_item_id,omitempty"`     // 订单项ID
	WorkOrderID   *uint       `gorm:"index" json:"work_order_id,omitempty"`     // 工单ID
	CheckType     string      `gorm:"index;not null" json:"check_type"`         // 质检类型
	CheckedBy     string      `gorm:"not null" json:"checked_by"`               // 质检人标识
	CheckCriteria string      `gorm:"type:text" json:"check_criteria"`          // 质检标准
	OverallResult string      `gorm:"index;not null" json:"overall_result"`     // 质检结果（pass/fail）
	DefectsFound  StringArray `gorm:"type:json" json:"defects_found"`           // 缺陷清单
	Score         *Money      `gorm:"type:decimal(5,2)" json:"score,omitempty"` // 质检评分（0-100）
	Notes         string      `gorm:"type:text" json:"notes,omitempty"`         // 备注
	CheckedAt     time.Time   `gorm:"index;not null" json:"checked_at"`         // 质检时间
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`                  // 创建时间
}

// TableName 指定表名
func (QualityCheck) TableName() string {
	return "quality_checks"
}
