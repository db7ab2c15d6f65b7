package app

import (
	"errors"

	"github.com/fulfill-next/internal/config"
	"github.com/fulfill-next/internal/jobs"
	"github.com/fulfill-next/internal/provider"
	"github.com/fulfill-next/internal/router"
	"github.com/fulfill-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务
	// 队列关闭时 all 模式静默跳过（签收评估走就地路径），显式 worker 模式仍然报错
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	// 自动完成兜底扫描跟随 worker 侧启动
	if (mode == ModeAll || mode == ModeWorker) && cfg.Fulfillment.Sweep.Enabled {
		sweepJob := jobs.NewAutoCompletionJob(container.OrderRepo, container.AutoCompleteService, container.QueueClient, cfg.Fulfillment.Sweep)
		jobService, err := jobs.NewService(sweepJob)
		if err != nil {
			return nil, err
		}
		services = append(services, jobService)
	}

	// 如果没有服务被启动（例如模式错误或配置导致都没起），应该报错或至少打日志
	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
