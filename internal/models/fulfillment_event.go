package models

import (
	"time"
)

// FulfillmentEvent 履约事件表（只追加，不修改不删除）
type FulfillmentEvent struct {
	ID          uint      `gorm:"primarykey" json:"id"`                // 主键
	OrgID       uint      `gorm:"index;not null" json:"org_id"`        // 组织ID
	OrderID     uint      `gorm:"index;not null" json:"order_id"`      // 订单ID
	EventCode   string    `gorm:"index;not null" json:"event_code"`    // 事件编码
	EventType   string    `gorm:"index;not null" json:"event_type"`    // 事件类型
	StatusAfter string    `json:"status_after,omitempty"`              // 事件发生后的状态
	ActorUserID string    `json:"actor_user_id,omitempty"`             // 操作者标识
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`    // 备注
	Metadata    JSON      `gorm:"type:json" json:"metadata,omitempty"` // 扩展信息
	CreatedAt   time.Time `gorm:"index" json:"created_at"`             // 创建时间
}

// TableName 指定表名
func (FulfillmentEvent) TableName() string {
	return "fulfillment_events"
}
