package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Source 源注册表中的一行，例如 Hacker News / Reddit / GitHub Trending
type Source struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:128;uniqueIndex" json:"name"`
	URL      string `gorm:"size:1024" json:"url"`
	FeedType string `gorm:"size:32" json:"feedType"` // RSS / API / JSON / GraphQL / Scraping
	Category string `gorm:"size:128;index" json:"category"`
	Icon     string `gorm:"size:64" json:"icon"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s Source) Descriptor() collector.Descriptor {
	return collector.Descriptor{
		ID:       s.ID,
		Name:     s.Name,
		URL:      s.URL,
		FeedType: s.FeedType,
		Category: s.Category,
		Icon:     s.Icon,
	}
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore 连接 Postgres 并迁移表结构；redisURL 非空时优先于 redisAddr
func NewStore(dsn, redisAddr, redisURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}

	if err := db.AutoMigrate(&Source{}, &FetchSkip{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	opts := &redis.Options{Addr: redisAddr}
	if redisURL != "" {
		if opts, err = redis.ParseURL(redisURL); err != nil {
			return nil, fmt.Errorf("storage: parse redis url: %w", err)
		}
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// GetSource 按 id 查询，不存在时返回 aggregator.ErrSourceNotFound
func (s *Store) GetSource(ctx context.Context, id uint) (collector.Descriptor, error) {
	var src Source
	if err := s.DB.WithContext(ctx).First(&src, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return collector.Descriptor{}, aggregator.ErrSourceNotFound
		}
		return collector.Descriptor{}, fmt.Errorf("storage: get source %d: %w", id, err)
	}
	return src.Descriptor(), nil
}

// ListSources 按 id 排序返回，category 为空时返回全部
func (s *Store) ListSources(ctx context.Context, category string) ([]collector.Descriptor, error) {
	db := s.DB.WithContext(ctx).Model(&Source{})
	if category != "" {
		db = db.Where("category = ?", category)
	}
	var rows []Source
	if err := db.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: list sources: %w", err)
	}
	out := make([]collector.Descriptor, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Descriptor())
	}
	return out, nil
}

// Cache 返回基于同一个 Redis 连接的缓存实现
func (s *Store) Cache() *RedisCache {
	if s.Redis == nil {
		return nil
	}
	return &RedisCache{Client: s.Redis}
}
