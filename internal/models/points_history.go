package models

import "time"

// PointsHistory 积分流水表（只增不改，审计用）
type PointsHistory struct {
	ID           uint      `gorm:"primarykey" json:"id"`                       // 主键
	UserID       uint      `gorm:"index;not null" json:"user_id"`              // 用户ID
	Amount       int64     `gorm:"not null" json:"amount"`                     // 变动数量（带符号）
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`              // 变动后余额
	Reason       string    `gorm:"type:varchar(40);not null;index" json:"reason"` // 变动类型（sign_in/order_settle/...）
	RefID        *uint     `gorm:"index" json:"ref_id,omitempty"`              // 关联ID（订单或商品）
	Remark       string    `gorm:"type:varchar(200)" json:"remark,omitempty"`  // 备注
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                    // 创建时间
}

// TableName 指定表名
func (PointsHistory) TableName() string {
	return "points_histories"
}
