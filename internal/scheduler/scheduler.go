package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
	"github.com/robfig/cron/v3"
)

// Refresher 由 aggregator.Service 实现
type Refresher interface {
	RefreshAll(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error)
}

// Scheduler 定时预热聚合缓存，让首页请求尽量命中缓存
type Scheduler struct {
	cron    *cron.Cron
	svc     Refresher
	modes   []ranking.Mode
	timeout time.Duration

	StartupDelay time.Duration
}

func New(spec string, svc Refresher, timeout time.Duration) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		svc:          svc,
		modes:        []ranking.Mode{ranking.ModeHot, ranking.ModeNew},
		timeout:      timeout,
		StartupDelay: 15 * time.Second,
	}

	_, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮预热，避免与服务启动时的首批请求争抢资源
	time.AfterFunc(s.StartupDelay, func() {
		go s.runOnce()
	})
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 对外暴露的单次执行入口，方便手动触发预热
func (s *Scheduler) RunOnce() {
	s.runOnce()
}

func (s *Scheduler) runOnce() {
	log.Println("start cache warm job...")

	for _, mode := range s.modes {
		ctx, cancel := s.jobContext()
		items, err := s.svc.RefreshAll(ctx, mode, "")
		cancel()
		if err != nil {
			log.Printf("warm %s feed error: %v", mode, err)
			continue
		}
		log.Printf("warm %s feed done, items=%d", mode, len(items))
	}

	log.Println("cache warm job done")
}

func (s *Scheduler) jobContext() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	// 聚合内部每个源各自超时，这里只给整轮加一个上限
	return context.WithTimeout(context.Background(), 2*s.timeout)
}
