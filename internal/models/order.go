package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表（订单主数据由外部订单系统持有，这里仅维护履约需要的字段）
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrgID         uint           `gorm:"index;not null" json:"org_id"`                        // 组织ID
	OrderNo       string         `gorm:"uniqueIndex;not null" json:"order_no"`                // 订单编号
	Status        string         `gorm:"index;not null" json:"status"`                        // 订单宏观状态
	PaymentStatus string         `gorm:"index;not null;default:unpaid" json:"payment_status"` // 支付状态
	PaidAt        *time.Time     `gorm:"index" json:"paid_at"`                                // 支付时间
	CustomerName  string         `gorm:"type:varchar(200)" json:"customer_name"`              // 客户名称
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
