package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/provider"
	"github.com/jiyun-go/internal/queue"
	"github.com/jiyun-go/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskAuctionSettle, c.handleAuctionSettle)
	mux.HandleFunc(queue.TaskCompensationRetry, c.handleCompensationRetry)
}

func (c *Consumer) handleAuctionSettle(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_auction_settle_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.AuctionSettlePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_auction_settle_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 {
		logger.Debugw("worker_auction_settle_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}
	if c.AuctionService == nil {
		logger.Warnw("worker_auction_settle_skip_service_nil", "product_id", payload.ProductID)
		return nil
	}
	_, err := c.AuctionService.SettleAuction(payload.ProductID, false)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			logger.Debugw("worker_auction_settle_skip_product_not_found", "product_id", payload.ProductID)
			return nil
		case errors.Is(err, service.ErrProductNotAuction):
			logger.Debugw("worker_auction_settle_skip_not_auction", "product_id", payload.ProductID)
			return nil
		case errors.Is(err, service.ErrAuctionAlreadySettled):
			logger.Debugw("worker_auction_settle_skip_already_settled", "product_id", payload.ProductID)
			return nil
		case errors.Is(err, service.ErrAuctionNoBids):
			logger.Debugw("worker_auction_settle_no_bids", "product_id", payload.ProductID)
			return nil
		case errors.Is(err, service.ErrAuctionNotEnded):
			// 截止时间被后移过，任务按新时间重新投递
			logger.Warnw("worker_auction_settle_not_ended_retry", "product_id", payload.ProductID)
			return err
		default:
			logger.Warnw("worker_auction_settle_failed", "product_id", payload.ProductID, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleCompensationRetry(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_compensation_retry_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CompensationRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_compensation_retry_unmarshal_failed", "error", err)
		return err
	}
	if payload.CompensationID == 0 {
		logger.Debugw("worker_compensation_retry_skip_invalid_payload", "compensation_id", payload.CompensationID)
		return nil
	}
	if c.PointsService == nil {
		logger.Warnw("worker_compensation_retry_skip_service_nil", "compensation_id", payload.CompensationID)
		return nil
	}
	if err := c.PointsService.RetryCompensation(payload.CompensationID); err != nil {
		switch {
		case errors.Is(err, service.ErrCompensationNotFound):
			logger.Debugw("worker_compensation_retry_skip_not_found", "compensation_id", payload.CompensationID)
			return nil
		default:
			logger.Warnw("worker_compensation_retry_failed", "compensation_id", payload.CompensationID, "error", err)
			return err
		}
	}
	return nil
}
