package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
)

type fakeRefresher struct {
	mu    sync.Mutex
	modes []ranking.Mode
	err   error
}

func (f *fakeRefresher) RefreshAll(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modes = append(f.modes, mode)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a deadline")
	}
	return []collector.Item{{Title: "x"}}, f.err
}

func TestNewRejectsInvalidCronSpec(t *testing.T) {
	if _, err := New("not a cron spec", &fakeRefresher{}, time.Second); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}

func TestRunOnceWarmsBothModes(t *testing.T) {
	f := &fakeRefresher{}
	s, err := New("*/5 * * * *", f, time.Second)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.RunOnce()
	if len(f.modes) != 2 || f.modes[0] != ranking.ModeHot || f.modes[1] != ranking.ModeNew {
		t.Fatalf("unexpected refreshed modes: %v", f.modes)
	}
}

func TestRunOnceContinuesAfterError(t *testing.T) {
	f := &fakeRefresher{err: errors.New("db down")}
	s, err := New("@every 1h", f, time.Second)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.RunOnce()
	if len(f.modes) != 2 {
		t.Fatalf("expected both modes attempted, got %v", f.modes)
	}
}
