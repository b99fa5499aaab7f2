package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
)

// DefaultTTL 缓存 5 分钟后过期，不做主动失效
const DefaultTTL = 5 * time.Minute

// ErrSourceNotFound 源 id 不存在
var ErrSourceNotFound = errors.New("source not found")

// SourceRepository 只读的源注册表
type SourceRepository interface {
	GetSource(ctx context.Context, id uint) (collector.Descriptor, error)
	ListSources(ctx context.Context, category string) ([]collector.Descriptor, error)
}

// Cache 外部缓存，值是序列化后的条目列表
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SkipRecorder 记录聚合时被跳过的源
type SkipRecorder interface {
	RecordSkips(ctx context.Context, skips []Skip) error
}

// Service 在 Aggregator 外包一层缓存；cache 为空时不缓存
type Service struct {
	agg   *Aggregator
	repo  SourceRepository
	cache Cache
	skips SkipRecorder

	TTL time.Duration
}

func NewService(agg *Aggregator, repo SourceRepository, cache Cache, skips SkipRecorder) *Service {
	return &Service{agg: agg, repo: repo, cache: cache, skips: skips, TTL: DefaultTTL}
}

func FeedKey(id uint, mode ranking.Mode, subreddit string) string {
	if subreddit == "" {
		subreddit = "default"
	}
	return fmt.Sprintf("feed:%d:%s:%s", id, mode, subreddit)
}

func AllFeedsKey(mode ranking.Mode, category string) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("feeds:all:%s:%s", mode, category)
}

func (s *Service) Sources(ctx context.Context, category string) ([]collector.Descriptor, error) {
	return s.repo.ListSources(ctx, category)
}

// Feed 单个源的排序结果；subreddit 只对 Reddit 源生效
func (s *Service) Feed(ctx context.Context, id uint, mode ranking.Mode, subreddit string) ([]collector.Item, error) {
	d, sub, err := s.resolve(ctx, id, subreddit)
	if err != nil {
		return nil, err
	}
	key := FeedKey(id, mode, sub)
	if items, ok := s.load(ctx, key); ok {
		return items, nil
	}
	return s.fetchOne(ctx, key, d, mode, sub)
}

// RefreshFeed 跳过读缓存，重新抓取并覆盖
func (s *Service) RefreshFeed(ctx context.Context, id uint, mode ranking.Mode, subreddit string) ([]collector.Item, error) {
	d, sub, err := s.resolve(ctx, id, subreddit)
	if err != nil {
		return nil, err
	}
	return s.fetchOne(ctx, FeedKey(id, mode, sub), d, mode, sub)
}

// AllFeeds 所有源（可按分类过滤）合并后的排序结果，单个源失败不影响整体
func (s *Service) AllFeeds(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error) {
	key := AllFeedsKey(mode, category)
	if items, ok := s.load(ctx, key); ok {
		return items, nil
	}
	return s.fetchAll(ctx, key, mode, category)
}

func (s *Service) RefreshAll(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error) {
	return s.fetchAll(ctx, AllFeedsKey(mode, category), mode, category)
}

func (s *Service) resolve(ctx context.Context, id uint, subreddit string) (collector.Descriptor, string, error) {
	d, err := s.repo.GetSource(ctx, id)
	if err != nil {
		return collector.Descriptor{}, "", err
	}
	if !strings.Contains(strings.ToLower(d.Name), "reddit") {
		subreddit = ""
	}
	return d, subreddit, nil
}

func (s *Service) fetchOne(ctx context.Context, key string, d collector.Descriptor, mode ranking.Mode, sub string) ([]collector.Item, error) {
	items, err := s.agg.FetchOne(ctx, d, mode, sub)
	if err != nil {
		return nil, err
	}
	s.save(ctx, key, items)
	return items, nil
}

func (s *Service) fetchAll(ctx context.Context, key string, mode ranking.Mode, category string) ([]collector.Item, error) {
	sources, err := s.repo.ListSources(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("aggregator: list sources: %w", err)
	}
	res := s.agg.FetchAll(ctx, sources, mode)
	if len(res.Skipped) > 0 && s.skips != nil {
		if err := s.skips.RecordSkips(ctx, res.Skipped); err != nil {
			log.Printf("aggregator: record skips: %v", err)
		}
	}
	s.save(ctx, key, res.Items)
	return res.Items, nil
}

// load 读失败或反序列化失败都按未命中处理
func (s *Service) load(ctx context.Context, key string) ([]collector.Item, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache: get %s: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var items []collector.Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("cache: decode %s: %v", key, err)
		return nil, false
	}
	log.Printf("cache: hit %s", key)
	return items, true
}

func (s *Service) save(ctx context.Context, key string, items []collector.Item) {
	if s.cache == nil {
		return
	}
	if items == nil {
		items = []collector.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		log.Printf("cache: encode %s: %v", key, err)
		return
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}
