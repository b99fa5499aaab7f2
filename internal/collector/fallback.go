package collector

import (
	"context"
	"log"
)

// Fallback 先尝试 Primary，失败后再尝试 Secondary；两者都失败时返回上游错误
type Fallback struct {
	Label     string
	Msg       string
	Primary   Fetcher
	Secondary Fetcher
}

func (f *Fallback) Name() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Primary.Name()
}

func (f *Fallback) Fetch(ctx context.Context) ([]Item, error) {
	items, err := f.Primary.Fetch(ctx)
	if err == nil {
		return items, nil
	}
	log.Printf("%s: primary %s failed, trying %s: %v", f.Name(), f.Primary.Name(), f.Secondary.Name(), err)

	items, err2 := f.Secondary.Fetch(ctx)
	if err2 == nil {
		return items, nil
	}
	msg := f.Msg
	if msg == "" {
		msg = "all fetchers failed"
	}
	return nil, exhaustedError(f.Name(), msg, err, err2)
}
