package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 积分商城商品表（直接兑换或竞拍）
type Product struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Name             string         `gorm:"type:varchar(120);not null" json:"name"`                // 商品名称
	Description      string         `gorm:"type:text" json:"description"`                          // 商品描述
	ImageURL         string         `gorm:"type:varchar(300)" json:"image_url"`                    // 商品图片
	Category         string         `gorm:"type:varchar(40);index" json:"category"`                // 分类
	PointsRequired   int64          `gorm:"not null;default:0" json:"points_required"`             // 起拍价/兑换所需积分
	DirectBuyPoints  *int64         `json:"direct_buy_points,omitempty"`                           // 一口价积分（可选）
	FixedShippingFee Money          `gorm:"type:decimal(20,2);not null;default:0" json:"fixed_shipping_fee"` // 固定运费
	Stock            int            `gorm:"not null;default:0" json:"stock"`                       // 库存
	IsAuction        bool           `gorm:"default:false;index" json:"is_auction"`                 // 是否竞拍商品
	EndTime          *time.Time     `gorm:"index" json:"end_time,omitempty"`                       // 竞拍截止时间（非竞拍为空）
	SettledAt        *time.Time     `gorm:"index" json:"settled_at,omitempty"`                     // 结拍时间（为空表示未结拍）
	IsActive         bool           `gorm:"default:true;index" json:"is_active"`                   // 是否上架
	SortOrder        int            `gorm:"default:0;index" json:"sort_order"`                     // 排序权重
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt        time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
