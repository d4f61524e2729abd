package models

import "time"

// TrackingLog 物流轨迹表（只增不改）
type TrackingLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`              // 订单ID
	StatusTitle string    `gorm:"type:varchar(60);not null" json:"status_title"` // 节点状态标题
	Location    string    `gorm:"type:varchar(120)" json:"location"`           // 所在地点
	Description string    `gorm:"type:varchar(300)" json:"description"`        // 节点描述
	OperatorID  uint      `gorm:"index" json:"operator_id,omitempty"`          // 操作人ID（0 表示系统）
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (TrackingLog) TableName() string {
	return "tracking_logs"
}
