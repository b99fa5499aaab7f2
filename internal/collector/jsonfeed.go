package collector

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LJTian/DevPulse/internal/processor"
)

const jsonMaxItems = 30

// JSONFetcher 抓取通用 JSON 列表（例如 Lobste.rs 的 hottest.json）。
// 顶层数组视为条目列表；顶层对象带 items 字段视为包裹列表；其它结构不支持。
type JSONFetcher struct {
	URL    string
	Client *http.Client
}

func (j *JSONFetcher) Name() string {
	return "json"
}

func (j *JSONFetcher) Fetch(ctx context.Context) ([]Item, error) {
	body, err := getBody(ctx, j.Client, j.Name(), j.URL, map[string]string{
		"User-Agent": defaultUserAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		return nil, err
	}
	return parseJSONList(j.Name(), body)
}

func parseJSONList(source string, body []byte) ([]Item, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, parseError(source, "decode json", err)
	}

	switch v := data.(type) {
	case []any:
		return mapEntries(v, flatEntry), nil
	case map[string]any:
		if list, ok := v["items"].([]any); ok {
			return mapEntries(list, wrappedEntry), nil
		}
		if _, ok := v["items"]; ok {
			// items 存在但不是数组
			return nil, parseError(source, "unsupported json feed structure", nil)
		}
	}
	return nil, parseError(source, "unsupported json feed structure", nil)
}

func mapEntries(list []any, conv func(map[string]any) Item) []Item {
	items := make([]Item, 0, min(len(list), jsonMaxItems))
	for _, raw := range list {
		if len(items) == jsonMaxItems {
			break
		}
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, conv(m))
	}
	return items
}

// flatEntry Lobste.rs 风格条目
func flatEntry(m map[string]any) Item {
	summary := stringField(m, "description")
	if summary == "" {
		summary = stringField(m, "comments_url")
	}
	return Item{
		Title:     stringField(m, "title"),
		Link:      firstString(m, "url", "short_id_url"),
		Published: stringField(m, "created_at"),
		Summary:   processor.CleanHTML(summary),
	}
}

// wrappedEntry JSON Feed 风格条目
func wrappedEntry(m map[string]any) Item {
	return Item{
		Title:     stringField(m, "title"),
		Link:      firstString(m, "url", "link"),
		Published: firstString(m, "published", "date_published"),
		Summary:   processor.CleanHTML(firstString(m, "summary", "description")),
	}
}
