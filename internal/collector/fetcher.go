package collector

import (
	"context"
	"strings"
)

// Item 统一后的内容条目，也是缓存与接口使用的唯一序列化格式
type Item struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
	// Source 由聚合层按来源名称填充，Fetcher 不设置
	Source string `json:"source,omitempty"`
	// Published 保留上游原始时间文本，排序时再用 processor.ParseDatetime 解析
	Published string `json:"published,omitempty"`
	Summary   string `json:"summary,omitempty"`
	// Extra 只给排序用的数值信号，例如 score / comments / timestamp
	Extra map[string]any `json:"extra,omitempty"`
}

// Fetcher 抽象每一种上游格式
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// Descriptor 描述一个待抓取的数据源，由持久化层提供，只读
type Descriptor struct {
	ID              uint
	Name            string
	URL             string
	FeedType        string // RSS / API / JSON / GraphQL / Scraping / ""
	Category        string
	Icon            string
	CustomSubreddit string
}

func (d Descriptor) lowerName() string { return strings.ToLower(d.Name) }
func (d Descriptor) lowerURL() string  { return strings.ToLower(d.URL) }
func (d Descriptor) lowerType() string {
	return strings.ToLower(strings.TrimSpace(d.FeedType))
}

func limitItems(items []Item, n int) []Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// stringField 从松散 JSON 对象中取字符串字段，非字符串视为空
func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// firstString 返回第一个非空的字符串字段
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(m, k); s != "" {
			return s
		}
	}
	return ""
}
