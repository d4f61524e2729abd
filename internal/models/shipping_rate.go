package models

import "time"

// ShippingRate 运费价目表
// 自然键为 (country, shipping_method, min_weight)，同一 (国家, 方式) 下多行构成重量阶梯。
type ShippingRate struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	Country        string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_rate_key" json:"country"`           // 国家/地区
	ShippingMethod string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_rate_key" json:"shipping_method"`   // 运输方式
	MinWeight      Money     `gorm:"type:decimal(20,2);not null;default:0;uniqueIndex:idx_rate_key" json:"min_weight"` // 阶梯下限（kg）
	MaxWeight      *Money    `gorm:"type:decimal(20,2)" json:"max_weight,omitempty"`                              // 阶梯上限（kg，空表示不封顶）
	UnitPrice      Money     `gorm:"type:decimal(20,2);not null" json:"unit_price"`                               // 单价（每kg）
	Currency       string    `gorm:"type:varchar(10);not null;default:'CNY'" json:"currency"`                     // 币种
	DeliveryDays   string    `gorm:"type:varchar(40)" json:"delivery_days"`                                       // 时效说明
	CreatedAt      time.Time `json:"created_at"`                                                                  // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                                  // 更新时间
}

// TableName 指定表名
func (ShippingRate) TableName() string {
	return "shipping_rates"
}
