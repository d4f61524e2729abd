package models

import "time"

// PendingCompensation 待补偿积分记录
// 扣分后下游写入失败且补偿返还也失败时落库，由后台任务重试。
type PendingCompensation struct {
	ID        uint      `gorm:"primarykey" json:"id"`                            // 主键
	UserID    uint      `gorm:"index;not null" json:"user_id"`                   // 用户ID
	Amount    int64     `gorm:"not null" json:"amount"`                          // 待返还积分
	Reason    string    `gorm:"type:varchar(40);not null" json:"reason"`         // 返还类型标签
	RefID     *uint     `gorm:"index" json:"ref_id,omitempty"`                   // 关联ID
	Status    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"` // 状态（pending/done）
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`              // 已重试次数
	LastError string    `gorm:"type:varchar(300)" json:"last_error,omitempty"`   // 最近一次失败原因
	CreatedAt time.Time `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (PendingCompensation) TableName() string {
	return "pending_compensations"
}
