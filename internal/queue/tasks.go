package queue

import (
	"encoding/json"

	"github.com/jiyun-go/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuctionSettle 竞拍到期结拍任务
	TaskAuctionSettle = constants.TaskAuctionSettle
	// TaskCompensationRetry 积分补偿重试任务
	TaskCompensationRetry = constants.TaskCompensationRetry
)

// AuctionSettlePayload 竞拍结拍任务载荷
type AuctionSettlePayload struct {
	ProductID uint `json:"product_id"`
}

// CompensationRetryPayload 补偿重试任务载荷
type CompensationRetryPayload struct {
	CompensationID uint `json:"compensation_id"`
}

// NewAuctionSettleTask 创建竞拍结拍任务
func NewAuctionSettleTask(payload AuctionSettlePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuctionSettle, body), nil
}

// NewCompensationRetryTask 创建补偿重试任务
func NewCompensationRetryTask(payload CompensationRetryPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCompensationRetry, body), nil
}
