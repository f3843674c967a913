package models

import (
	"time"

	"gorm.io/gorm"
)

// AnalysisOrder 复盘分析订单表
type AnalysisOrder struct {
	ID        uint           `gorm:"primarykey" json:"id"`                             // 主键
	OrderNo   string         `gorm:"type:varchar(48);uniqueIndex;not null" json:"order_no"` // 订单号
	UserID    uint           `gorm:"index;not null" json:"user_id"`                    // 用户ID
	StockCode string         `gorm:"type:varchar(16);index" json:"stock_code"`         // 股票代码
	StockName string         `gorm:"type:varchar(64)" json:"stock_name"`               // 股票名称
	Amount    Money          `gorm:"type:decimal(20,2);not null" json:"amount"`        // 订单金额
	Status    string         `gorm:"type:varchar(24);index;not null" json:"status"`    // 状态
	PaidAt    *time.Time     `gorm:"index" json:"paid_at"`                             // 支付时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                          // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                          // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (AnalysisOrder) TableName() string {
	return "analysis_orders"
}
