package collector

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LJTian/DevPulse/internal/processor"
)

const (
	devtoURL      = "https://dev.to/api/articles?per_page=30"
	devtoMaxItems = 30
)

// DevToFetcher 抓取 DEV.to 最新文章，不依赖描述中的 URL
type DevToFetcher struct {
	URL    string
	APIKey string
	Client *http.Client
}

func (d *DevToFetcher) Name() string {
	return "devto"
}

type devtoArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
}

func (d *DevToFetcher) Fetch(ctx context.Context) ([]Item, error) {
	headers := map[string]string{
		"User-Agent": defaultUserAgent,
		"Accept":     "application/json",
	}
	if d.APIKey != "" {
		headers["api-key"] = d.APIKey
	}

	body, err := getBody(ctx, d.Client, d.Name(), orDefault(d.URL, devtoURL), headers)
	if err != nil {
		return nil, err
	}

	var articles []devtoArticle
	if err := json.Unmarshal(body, &articles); err != nil {
		return nil, parseError(d.Name(), "decode articles", err)
	}

	items := make([]Item, 0, min(len(articles), devtoMaxItems))
	for _, a := range limitArticles(articles) {
		published := a.PublishedAt
		if published == "" {
			published = a.CreatedAt
		}
		items = append(items, Item{
			Title:     a.Title,
			Link:      a.URL,
			Published: published,
			Summary:   processor.CleanHTML(a.Description),
		})
	}
	return items, nil
}

func limitArticles(a []devtoArticle) []devtoArticle {
	if len(a) > devtoMaxItems {
		return a[:devtoMaxItems]
	}
	return a
}
