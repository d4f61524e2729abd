package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 运单/订单表（物流订单与积分商城订单共用）
type Order struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                  // 主键
	OrderNo           string         `gorm:"uniqueIndex;not null" json:"order_no"`                  // 订单编号
	UserID            uint           `gorm:"index;not null" json:"user_id"`                         // 用户ID
	OrderType         string         `gorm:"type:varchar(20);not null;index" json:"order_type"`     // 订单类型（logistics/market）
	Status            string         `gorm:"index;not null" json:"status"`                          // 订单状态（中文状态值）
	Country           string         `gorm:"type:varchar(40)" json:"country"`                       // 目的国家/地区
	ShippingMethod    string         `gorm:"type:varchar(40)" json:"shipping_method"`               // 运输方式
	Weight            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"weight"`   // 计费重量（kg）
	ShippingFee       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_fee"` // 运费
	Currency          string         `gorm:"not null;default:'CNY'" json:"currency"`                // 币种
	PointsAwarded     int64          `gorm:"not null;default:0" json:"points_awarded"`              // 已奖励积分（累计，防止重复发放）
	CargoDetails      string         `gorm:"type:text" json:"cargo_details"`                        // 货物明细
	SenderName        string         `gorm:"type:varchar(100)" json:"sender_name"`                  // 寄件人姓名
	SenderPhone       string         `gorm:"type:varchar(40)" json:"sender_phone"`                  // 寄件人电话
	SenderAddress     string         `gorm:"type:varchar(300)" json:"sender_address"`               // 寄件人地址
	ReceiverName      string         `gorm:"type:varchar(100)" json:"receiver_name"`                // 收件人姓名
	ReceiverPhone     string         `gorm:"type:varchar(40)" json:"receiver_phone"`                // 收件人电话
	ReceiverAddress   string         `gorm:"type:varchar(300)" json:"receiver_address"`             // 收件人地址
	TrackingNo        string         `gorm:"index" json:"tracking_no,omitempty"`                    // 物流单号
	ProductID         *uint          `gorm:"index" json:"product_id,omitempty"`                     // 来源商城商品ID
	CancelRequestedBy string         `gorm:"type:varchar(20);default:''" json:"cancel_requested_by"` // 取消申请方（customer/admin，空表示无）
	CancelRequestedAt *time.Time     `json:"cancel_requested_at,omitempty"`                         // 取消申请时间
	PaidAt            *time.Time     `gorm:"index" json:"paid_at"`                                  // 运费支付确认时间
	SettledAt         *time.Time     `gorm:"index" json:"settled_at"`                               // 结算完成时间
	CanceledAt        *time.Time     `gorm:"index" json:"canceled_at"`                              // 取消时间
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                               // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间

	// 关联
	TrackingLogs []TrackingLog `gorm:"foreignKey:OrderID" json:"tracking_logs,omitempty"` // 物流轨迹
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
