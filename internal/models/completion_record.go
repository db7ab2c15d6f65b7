package models

import (
	"time"
)

// CompletionRecord 订单完成记录表（每个订单至多一条，创建后不可变更）
type CompletionRecord struct {
	ID                        uint      `gorm:"primarykey" json:"id"`                                           // 主键
	OrgID                     uint      `gorm:"index;not null" json:"org_id"`                                   // 组织ID
	OrderID                   uint      `gorm:"uniqueIndex;not null" json:"order_id"`                           // 订单ID
	CompletionType            string    `gorm:"not null" json:"completion_type"`                                // 完成方式（manual/automatic）
	CompletedBy               string    `gorm:"not null" json:"completed_by"`                                   // 完成人标识
	CompletedAt               time.Time `gorm:"index;not null" json:"completed_at"`                             // 完成时间
	VerificationMethod        string    `json:"verification_method,omitempty"`                                  // 核验方式
	CustomerSatisfactionScore *Money    `gorm:"type:decimal(5,2)" json:"customer_satisfaction_score,omitempty"` // 客户满意度评分
	QualityScore              *Money    `gorm:"type:decimal(5,2)" json:"quality_score,omitempty"`               // 质检综合评分
	InvoiceGenerated          bool      `gorm:"not null;default:false" json:"invoice_generated"`                // 是否已生成发票
	FinalPaymentCaptured      bool      `gorm:"not null;default:false" json:"final_payment_captured"`           // 是否已完成尾款扣款
	Notes                     string    `gorm:"type:text" json:"notes,omitempty"`                               // 备注
	CreatedAt                 time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt                 time.Time `gorm:"index" json:"updated_at"`                                        // 更新时间
}

// TableName 指定表名
func (CompletionRecord) TableName() string {
	return "completion_records"
}
