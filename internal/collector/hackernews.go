package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/LJTian/DevPulse/internal/processor"
)

const (
	hnBaseURL     = "https://hacker-news.firebaseio.com/v0/"
	hnMaxItems    = 25
	hnConcurrency = 10
)

// HackerNewsFetcher 通过官方 Firebase API 抓取 Hacker News 热门故事：
// 先取 id 列表，再逐个取详情；单个详情失败只跳过该条
type HackerNewsFetcher struct {
	BaseURL string
	Client  *http.Client
}

func (h *HackerNewsFetcher) Name() string {
	return "hackernews"
}

type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

func (h *HackerNewsFetcher) base() string {
	base := h.BaseURL
	if base == "" {
		base = hnBaseURL
	}
	return strings.TrimRight(base, "/")
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context) ([]Item, error) {
	body, err := getBody(ctx, h.Client, h.Name(), h.base()+"/topstories.json", map[string]string{
		"User-Agent": defaultUserAgent,
	})
	if err != nil {
		return nil, err
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, parseError(h.Name(), "decode top stories", err)
	}
	if len(ids) > hnMaxItems {
		ids = ids[:hnMaxItems]
	}

	// 按 id 列表中的位置写回，保持上游顺序
	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, hnConcurrency)
		fetched = make([]*hnItem, len(ids))
	)
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx, id int) {
			defer wg.Done()
			defer func() { <-sem }()

			it, err := h.fetchItem(ctx, id)
			if err != nil {
				log.Printf("hackernews: skip item %d: %v", id, err)
				return
			}
			if it == nil || it.Deleted || it.Dead {
				return
			}
			fetched[idx] = it
		}(i, id)
	}
	wg.Wait()

	results := make([]Item, 0, len(fetched))
	for _, it := range fetched {
		if it == nil {
			continue
		}
		link := it.URL
		if link == "" {
			link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		}
		results = append(results, Item{
			Title:     it.Title,
			Link:      link,
			Published: processor.FormatTimestamp(it.Time),
			Summary:   fmt.Sprintf("Score: %d points | %d comments", it.Score, it.Descendants),
			Extra: map[string]any{
				"score":     it.Score,
				"comments":  it.Descendants,
				"timestamp": it.Time,
			},
		})
	}
	return results, nil
}

// fetchItem 返回 nil, nil 表示上游返回了 null
func (h *HackerNewsFetcher) fetchItem(ctx context.Context, id int) (*hnItem, error) {
	ctx, cancel := context.WithTimeout(ctx, itemTimeout)
	defer cancel()

	body, err := getBody(ctx, h.Client, h.Name(), fmt.Sprintf("%s/item/%d.json", h.base(), id), nil)
	if err != nil {
		return nil, err
	}
	var it *hnItem
	if err := json.Unmarshal(body, &it); err != nil {
		return nil, parseError(h.Name(), "decode item", err)
	}
	return it, nil
}
