package jobs

import (
	"context"
	"errors"
)

// Service 定时任务服务，适配应用运行器
type Service struct {
	name string
	job  *AutoCompletionJob
}

// NewService 创建定时任务服务
func NewService(job *AutoCompletionJob) (*Service, error) {
	if job == nil {
		return nil, errors.New("job is nil")
	}
	return &Service{name: "jobs", job: job}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return s.name
}

// Start 启动定时任务并阻塞至上下文取消
func (s *Service) Start(ctx context.Context) error {
	if err := s.job.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

// Stop 停止调度，等待在途扫描结束或超时
func (s *Service) Stop(ctx context.Context) error {
	drained := s.job.Stop()
	select {
	case <-drained.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
