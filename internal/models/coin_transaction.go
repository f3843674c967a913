package models

import "time"

// CoinTransaction 金币流水表
// 兑换码核销时与余额变更同事务写入，构成兑换台账。
type CoinTransaction struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	UserID       uint      `gorm:"index;not null" json:"user_id"`                 // 用户ID
	Amount       int64     `gorm:"not null" json:"amount"`                        // 变更金额（金币）
	Direction    string    `gorm:"type:varchar(8);not null" json:"direction"`     // 方向（in）
	TxnType      string    `gorm:"type:varchar(32);index;not null" json:"type"`   // 类型（exchange_code）
	Reference    string    `gorm:"type:varchar(128);index" json:"reference"`      // 关联凭据（兑换码）
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`                 // 变更后余额
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
