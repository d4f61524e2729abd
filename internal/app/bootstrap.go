package app

import (
	"errors"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/provider"
	"github.com/jiyun-go/internal/router"
	"github.com/jiyun-go/internal/worker"
)

// BuildRunner 按启动模式组装服务：api 起 HTTP，worker 起队列消费者，all 两者都起
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("配置未初始化")
	}
	container := provider.NewContainer(cfg)

	var services []Service
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server.Host+":"+cfg.Server.Port, engine))
	}
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}
	if len(services) == 0 {
		return nil, errors.New("未知的启动模式: " + mode)
	}
	return NewRunner(services...), nil
}

// Run 应用入口：组装运行器并阻塞到停机
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("配置未初始化")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Host+":"+opts.Config.Server.Port,
		"mode", opts.Mode,
	)
	return RunWithOptions(runner, opts)
}
