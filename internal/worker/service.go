package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	compensationSweepInterval = time.Minute
	compensationSweepBatch    = 50
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PointsService != nil {
		go s.runCompensationSweepLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runCompensationSweepLoop 周期扫描待补偿记录并逐条重试
// 兜底队列投递丢失的情况，重试次数达到上限的记录留给人工处理。
func (s *Service) runCompensationSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PointsService == nil {
		return
	}
	maxAttempts := 0
	if s.consumer.Config != nil {
		maxAttempts = s.consumer.Config.Points.CompensationMaxAttempts
	}
	runOnce := func() {
		records, err := s.consumer.PointsService.ListPendingCompensations(compensationSweepBatch)
		if err != nil {
			logger.Warnw("worker_compensation_sweep_list_failed", "error", err)
			return
		}
		for _, record := range records {
			if maxAttempts > 0 && record.Attempts >= maxAttempts {
				continue
			}
			if err := s.consumer.PointsService.RetryCompensation(record.ID); err != nil {
				logger.Warnw("worker_compensation_sweep_retry_failed", "id", record.ID, "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(compensationSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
