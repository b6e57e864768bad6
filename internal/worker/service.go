package worker

import (
	"context"
	"errors"
	"time"

	"github.com/fenxiao-next/internal/config"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列与周期任务服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer

	promoteInterval time.Duration
	settleInterval  time.Duration
	sweepInterval   time.Duration
}

// NewService 创建异步队列服务
func NewService(queueCfg *config.QueueConfig, workerCfg config.WorkerConfig, consumer *Consumer) (*Service, error) {
	if queueCfg == nil || !queueCfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(queueCfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:            "worker",
		server:          server,
		mux:             mux,
		consumer:        consumer,
		promoteInterval: intervalMinutes(workerCfg.PromoteIntervalMinutes, 10),
		settleInterval:  intervalMinutes(workerCfg.SettleIntervalMinutes, 10),
		sweepInterval:   intervalMinutes(workerCfg.SweepIntervalMinutes, 5),
	}, nil
}

func intervalMinutes(minutes, fallback int) time.Duration {
	if minutes <= 0 {
		minutes = fallback
	}
	return time.Duration(minutes) * time.Minute
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
	if s.consumer != nil {
		go s.runPromoteLoop(ctx)
		go s.runSettleLoop(ctx)
		go s.runSweepLoop(ctx)
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

// 周期推进冻结佣金到待审核
func (s *Service) runPromoteLoop(ctx context.Context) {
	if s.consumer == nil || s.consumer.CommissionService == nil {
		return
	}
	runOnce := func() {
		promoted, err := s.consumer.CommissionService.PromoteDueCommissions(time.Now())
		if err != nil {
			logger.Warnw("worker_promote_loop_failed", "error", err)
			return
		}
		if promoted > 0 {
			logger.Infow("worker_promote_loop_done", "count", promoted)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.promoteInterval)
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

// 周期结算已审核佣金
func (s *Service) runSettleLoop(ctx context.Context) {
	if s.consumer == nil || s.consumer.CommissionService == nil {
		return
	}
	runOnce := func() {
		settled, err := s.consumer.CommissionService.SettleApproved(time.Now())
		if err != nil {
			logger.Warnw("worker_settle_loop_failed", "error", err)
			return
		}
		if settled > 0 {
			logger.Infow("worker_settle_loop_done", "count", settled)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.settleInterval)
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

// 周期兜底扫描：超时未支付取消、发货超期自动确认。
// 延迟任务丢失（如 Redis 清空）时由本循环补偿。
func (s *Service) runSweepLoop(ctx context.Context) {
	if s.consumer == nil || s.consumer.OrderService == nil {
		return
	}
	runOnce := func() {
		now := time.Now()
		cancelled, err := s.consumer.OrderService.SweepTimeoutOrders(now)
		if err != nil {
			logger.Warnw("worker_sweep_timeout_failed", "error", err)
		} else if cancelled > 0 {
			logger.Infow("worker_sweep_timeout_done", "count", cancelled)
		}
		confirmed, err := s.consumer.OrderService.SweepAutoConfirmOrders(now)
		if err != nil {
			logger.Warnw("worker_sweep_auto_confirm_failed", "error", err)
		} else if confirmed > 0 {
			logger.Infow("worker_sweep_auto_confirm_done", "count", confirmed)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
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
