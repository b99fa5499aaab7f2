package storage

import (
	"context"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedSource YAML 源列表中的一项
type SeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	FeedType string `yaml:"feed_type"`
	Category string `yaml:"category"`
	Icon     string `yaml:"icon"`
}

type seedFile struct {
	Sources []SeedSource `yaml:"sources"`
}

// DefaultSources 内置源列表
var DefaultSources = []SeedSource{
	{Name: "Hacker News", URL: "https://hacker-news.firebaseio.com/v0/", FeedType: "API", Category: "News & Discussions", Icon: "Y"},
	{Name: "Reddit", URL: "https://www.reddit.com/r/learnprogramming/.rss", FeedType: "RSS", Category: "News & Discussions", Icon: "reddit"},
	{Name: "Lobste.rs", URL: "https://lobste.rs/hottest.json", FeedType: "JSON", Category: "News & Discussions", Icon: "lobster"},
	{Name: "Techmeme", URL: "https://www.techmeme.com/feed.xml", FeedType: "RSS", Category: "News & Discussions", Icon: "techmeme"},
	{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/index", FeedType: "RSS", Category: "News & Discussions", Icon: "ars"},
	{Name: "Slashdot", URL: "http://rss.slashdot.org/Slashdot/slashdot", FeedType: "RSS", Category: "News & Discussions", Icon: "slashdot"},
	{Name: "GitHub Trending", URL: "https://github.com/trending", FeedType: "Scraping", Category: "Code, Tools & Products", Icon: "github"},
	{Name: "Product Hunt", URL: "https://www.producthunt.com/feed", FeedType: "RSS", Category: "Code, Tools & Products", Icon: "producthunt"},
	{Name: "The Changelog", URL: "https://changelog.com/feed", FeedType: "RSS", Category: "Code, Tools & Products", Icon: "changelog"},
	{Name: "Tech Blog", URL: "https://medium.com/feed/netflix-techblog", FeedType: "RSS", Category: "Knowledge & Tutorials", Icon: "techblog"},
	{Name: "DEV.to", URL: "https://dev.to/api/articles", FeedType: "API", Category: "Knowledge & Tutorials", Icon: "dev"},
	{Name: "HackerNoon", URL: "https://hackernoon.com/feed", FeedType: "RSS", Category: "Knowledge & Tutorials", Icon: "hackernoon"},
}

// LoadSeedFile 读取 YAML 源列表；path 为空时返回内置列表
func LoadSeedFile(path string) ([]SeedSource, error) {
	if path == "" {
		return DefaultSources, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]SeedSource, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("storage: parse seed file: %w", err)
	}
	seen := make(map[string]bool, len(f.Sources))
	for i, s := range f.Sources {
		if s.Name == "" {
			return nil, fmt.Errorf("storage: seed source %d: name is required", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("storage: seed source %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
	}
	return f.Sources, nil
}

// SeedSources 仅在注册表为空时写入，已有数据时不做任何修改
func (s *Store) SeedSources(ctx context.Context, sources []SeedSource) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Source{}).Count(&count).Error; err != nil {
		return fmt.Errorf("storage: count sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]Source, 0, len(sources))
	for _, src := range sources {
		rows = append(rows, src.model())
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.DB.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("storage: seed sources: %w", err)
	}
	log.Printf("storage: seeded %d sources", len(rows))
	return nil
}

func (s SeedSource) model() Source {
	return Source{
		Name:     s.Name,
		URL:      s.URL,
		FeedType: s.FeedType,
		Category: s.Category,
		Icon:     s.Icon,
	}
}
