package collector

import (
	"bytes"
	"context"
	"net/http"

	"github.com/LJTian/DevPulse/internal/processor"
	"github.com/mmcdole/gofeed"
)

const rssMaxItems = 30

// 部分站点会拦截非浏览器 UA，这里模拟浏览器请求头
var rssHeaders = map[string]string{
	"User-Agent":      browserUserAgent,
	"Accept":          "application/rss+xml, application/xml, application/atom+xml, text/xml, */*",
	"Accept-Language": "en-US,en;q=0.9",
}

// RSSFetcher 抓取 RSS / Atom 订阅源
type RSSFetcher struct {
	URL    string
	Client *http.Client
}

func (r *RSSFetcher) Name() string {
	return "rss"
}

func (r *RSSFetcher) Fetch(ctx context.Context) ([]Item, error) {
	body, err := getBody(ctx, r.Client, r.Name(), r.URL, rssHeaders)
	if err != nil {
		return nil, err
	}
	return parseFeed(r.Name(), body)
}

func parseFeed(source string, body []byte) ([]Item, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		// 格式有瑕疵但已解析出条目时照常使用，没有条目才算失败
		if feed == nil || len(feed.Items) == 0 {
			return nil, parseError(source, "parse feed", err)
		}
	}
	if feed == nil {
		return nil, parseError(source, "parse feed", nil)
	}

	entries := feed.Items
	if len(entries) > rssMaxItems {
		entries = entries[:rssMaxItems]
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		published := e.Published
		if published == "" {
			published = e.Updated
		}
		summary := e.Description
		if summary == "" {
			summary = e.Content
		}
		items = append(items, Item{
			Title:     e.Title,
			Link:      e.Link,
			Published: published,
			Summary:   processor.CleanHTML(summary),
		})
	}
	return items, nil
}
