package models

import (
	"time"
)

// Shipment 发货单表
type Shipment struct {
	ID                    uint       `gorm:"primarykey" json:"id"`                                       // 主键
	OrgID                 uint       `gorm:"index;not null" json:"org_id"`                               // 组织ID
	OrderID               uint       `gorm:"index;not null" json:"order_id"`                             // 订单ID
	ShipmentNumber        string     `gorm:"uniqueIndex;not null" json:"shipment_number"`                // 发货单号
	Status                string     `gorm:"index;not null" json:"status"`                               // 发货单状态
	Carrier               string     `gorm:"not null" json:"carrier"`                                    // 承运商
	Service               string     `json:"service,omitempty"`                                          // 承运服务
	TrackingNumber        string     `gorm:"index" json:"tracking_number,omitempty"`                     // 运单号
	ShippingAddress       string     `gorm:"type:text" json:"shipping_address"`                          // 收货地址
	ShippingCost          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"` // 运费
	WeightKg              *Money     `gorm:"type:decimal(10,2)" json:"weight_kg,omitempty"`              // 总重量（千克）
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`                          // 预计送达日期
	ActualDeliveryDate    *time.Time `gorm:"index" json:"actual_delivery_date,omitempty"`                // 实际送达日期
	ShippedAt             *time.Time `gorm:"index" json:"shipped_at,omitempty"`                          // 发货时间
	Notes                 string     `gorm:"type:text" json:"notes,omitempty"`                           // 备注
	CreatedAt             time.Time  `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt             time.Time  `gorm:"index" json:"updated_at"`                                    // 更新时间

	Items []ShipmentItem `gorm:"foreignKey:ShipmentID" json:"items,omitempty"` // 发货明细
}

// TableName 指定表名
func (Shipment) TableName() string {
	return "shipments"
}

// ShipmentItem 发货明细表
type ShipmentItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrgID       uint      `gorm:"index;not null" json:"org_id"`                // 组织ID
	ShipmentID  uint      `gorm:"index;not null" json:"shipment_id"`           // 发货单ID
	OrderItemID uint      `gorm:"index;not null" json:"order_item_id"`         // 订单项ID
	Quantity    int       `gorm:"not null;check:quantity > 0" json:"quantity"` // 发货数量
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`            // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (ShipmentItem) TableName() string {
	return "shipment_items"
}
