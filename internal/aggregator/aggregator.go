package aggregator

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
	"golang.org/x/sync/errgroup"
)

const (
	// PerSourceLimit 聚合时每个源最多取前 15 条，避免单个源刷屏
	PerSourceLimit = 15

	defaultWorkers       = 6
	defaultSourceTimeout = 15 * time.Second
)

// SourceFetcher 由 collector.Dispatcher 实现
type SourceFetcher interface {
	Fetch(ctx context.Context, d collector.Descriptor, subreddit string) ([]collector.Item, error)
}

// Skip 聚合时被跳过的源
type Skip struct {
	SourceID   uint   `json:"sourceId"`
	SourceName string `json:"sourceName"`
	Kind       string `json:"kind"`
	Status     int    `json:"status"`
	Reason     string `json:"reason"`
}

// Result 聚合结果：排好序的条目与被跳过的源
type Result struct {
	Items   []collector.Item
	Skipped []Skip
}

type Aggregator struct {
	fetcher SourceFetcher
	ranker  *ranking.Ranker

	Workers       int
	SourceTimeout time.Duration
}

func New(f SourceFetcher, r *ranking.Ranker) *Aggregator {
	if r == nil {
		r = ranking.New()
	}
	return &Aggregator{
		fetcher:       f,
		ranker:        r,
		Workers:       defaultWorkers,
		SourceTimeout: defaultSourceTimeout,
	}
}

// FetchOne 抓取单个源；错误原样返回给调用方
func (a *Aggregator) FetchOne(ctx context.Context, d collector.Descriptor, mode ranking.Mode, subreddit string) ([]collector.Item, error) {
	items, err := a.fetcher.Fetch(ctx, d, subreddit)
	if err != nil {
		return nil, err
	}
	tagSource(items, d.Name)
	return a.ranker.Sort(items, mode), nil
}

// FetchAll 并发抓取所有源，单个源失败只记录为 Skip；合并后统一排序一次
func (a *Aggregator) FetchAll(ctx context.Context, sources []collector.Descriptor, mode ranking.Mode) Result {
	perSource := make([][]collector.Item, len(sources))
	skips := make([]*Skip, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, d := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, a.sourceTimeout())
			defer cancel()

			items, err := a.fetcher.Fetch(sctx, d, "")
			if err != nil {
				log.Printf("aggregator: skip source %q: %v", d.Name, err)
				skips[i] = newSkip(d, err)
				return nil
			}
			if len(items) > PerSourceLimit {
				items = items[:PerSourceLimit]
			}
			tagSource(items, d.Name)
			perSource[i] = items
			return nil
		})
	}
	// 每个任务都返回 nil，Wait 只作为汇合点
	_ = g.Wait()

	var (
		merged  []collector.Item
		skipped []Skip
	)
	for i := range sources {
		merged = append(merged, perSource[i]...)
		if skips[i] != nil {
			skipped = append(skipped, *skips[i])
		}
	}
	return Result{Items: a.ranker.Sort(merged, mode), Skipped: skipped}
}

func (a *Aggregator) workers() int {
	if a.Workers <= 0 {
		return defaultWorkers
	}
	return a.Workers
}

func (a *Aggregator) sourceTimeout() time.Duration {
	if a.SourceTimeout <= 0 {
		return defaultSourceTimeout
	}
	return a.SourceTimeout
}

// tagSource 只给还没有来源名的条目填充
func tagSource(items []collector.Item, name string) {
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = name
		}
	}
}

func newSkip(d collector.Descriptor, err error) *Skip {
	s := &Skip{
		SourceID:   d.ID,
		SourceName: d.Name,
		Kind:       "unknown",
		Status:     collector.StatusCode(err),
		Reason:     err.Error(),
	}
	if k := collector.KindOf(err); k != 0 {
		s.Kind = k.String()
	}
	return s
}
