package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FetchSkip 聚合抓取时被跳过的源；同一轮聚合的记录共享 ReportID
type FetchSkip struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ReportID   string            `gorm:"size:36;index" json:"reportId"`
	SourceID   uint              `gorm:"index" json:"sourceId"`
	SourceName string            `gorm:"size:128" json:"sourceName"`
	Kind       string            `gorm:"size:32;index" json:"kind"`
	Status     int               `json:"status"`
	Detail     datatypes.JSONMap `gorm:"type:jsonb" json:"detail"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// skipRows 把一轮聚合的 Skip 转成入库行
func skipRows(skips []aggregator.Skip) []FetchSkip {
	reportID := uuid.NewString()
	rows := make([]FetchSkip, 0, len(skips))
	for _, sk := range skips {
		rows = append(rows, FetchSkip{
			ReportID:   reportID,
			SourceID:   sk.SourceID,
			SourceName: sk.SourceName,
			Kind:       sk.Kind,
			Status:     sk.Status,
			Detail:     datatypes.JSONMap{"reason": sk.Reason},
		})
	}
	return rows
}

// RecordSkips 实现 aggregator.SkipRecorder
func (s *Store) RecordSkips(ctx context.Context, skips []aggregator.Skip) error {
	if len(skips) == 0 {
		return nil
	}
	rows := skipRows(skips)
	if err := s.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("storage: record skips: %w", err)
	}
	return nil
}

// RecentSkips 最近的跳过记录，按时间倒序
func (s *Store) RecentSkips(ctx context.Context, limit int) ([]FetchSkip, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var rows []FetchSkip
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("storage: list skips: %w", err)
	}
	return rows, nil
}
