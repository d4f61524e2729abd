package models

import "time"

// Bid 竞拍出价表（只增不改，出价时积分已预先扣除）
type Bid struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	ProductID uint      `gorm:"index;not null" json:"product_id"` // 商品ID
	UserID    uint      `gorm:"index;not null" json:"user_id"`   // 出价用户ID
	BidPoints int64     `gorm:"not null" json:"bid_points"`      // 出价积分
	CreatedAt time.Time `gorm:"index" json:"created_at"`         // 出价时间
}

// TableName 指定表名
func (Bid) TableName() string {
	return "bids"
}
