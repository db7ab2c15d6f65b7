package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`           // 主键
	OrgID       uint           `gorm:"index;not null" json:"org_id"`   // 组织ID
	OrderID     uint           `gorm:"index;not null" json:"order_id"` // 订单ID
	ProductName string         `gorm:"not null" json:"product_name"`   // 商品名称快照
	SKU         string         `gorm:"index" json:"sku"`               // 商品SKU
	Quantity    int            `gorm:"not null" json:"quantity"`       // 订购数量
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`        // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                 // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
