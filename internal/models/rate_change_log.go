package models

import "time"

// RateChangeLog 价目表变更审计日志（每次批量执行写一条）
type RateChangeLog struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	BatchID      string    `gorm:"type:varchar(40);index" json:"batch_id"`        // 批次ID
	OperatorID   uint      `gorm:"index;not null" json:"operator_id"`             // 操作管理员ID
	AddedCount   int       `gorm:"not null;default:0" json:"added_count"`         // 新增条数
	UpdatedCount int       `gorm:"not null;default:0" json:"updated_count"`       // 更新条数
	Countries    string    `gorm:"type:varchar(500)" json:"countries"`            // 涉及国家（逗号分隔）
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (RateChangeLog) TableName() string {
	return "rate_change_logs"
}
