package models

import (
	"time"
)

// Organization 组织表
type Organization struct {
	ID                   uint      `gorm:"primarykey" json:"id"`                                // 主键
	Name                 string    `gorm:"not null" json:"name"`                                // 组织名称
	Code                 string    `gorm:"uniqueIndex;not null" json:"code"`                    // 组织编码（发货单号前缀）
	AutoCompleteEnabled  bool      `gorm:"not null;default:false" json:"auto_complete_enabled"` // 是否启用订单自动完成
	RequirePayment       bool      `gorm:"not null;default:true" json:"require_payment"`        // 自动完成是否要求已支付
	RequireQualityCheck  bool      `gorm:"not null;default:false" json:"require_quality_check"` // 自动完成是否要求质检通过
	RequireNotifications bool      `gorm:"not null;default:false" json:"require_notifications"` // 自动完成是否要求已发送通知
	CreatedAt            time.Time `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt            time.Time `gorm:"index" json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (Organization) TableName() string {
	return "organizations"
}
