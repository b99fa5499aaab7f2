package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LJTian/DevPulse/internal/aggregator"
)

func TestSourceDescriptor(t *testing.T) {
	src := Source{ID: 7, Name: "Go Blog", URL: "https://go.dev/blog/feed.atom", FeedType: "RSS", Category: "blog", Icon: "go"}
	d := src.Descriptor()
	if d.ID != 7 || d.Name != "Go Blog" || d.URL != src.URL || d.FeedType != "RSS" || d.Category != "blog" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.CustomSubreddit != "" {
		t.Fatalf("registry rows carry no subreddit override, got %q", d.CustomSubreddit)
	}
}

func TestParseSeed(t *testing.T) {
	data := []byte(`
sources:
  - name: Go Blog
    url: https://go.dev/blog/feed.atom
    feed_type: RSS
    category: blog
  - name: Reddit r/golang
    url: https://www.reddit.com/r/golang/.rss
    feed_type: RSS
    category: community
    icon: reddit
`)
	got, err := parseSeed(data)
	if err != nil {
		t.Fatalf("parseSeed returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got))
	}
	if got[1].Name != "Reddit r/golang" || got[1].Icon != "reddit" || got[0].FeedType != "RSS" {
		t.Fatalf("unexpected sources: %+v", got)
	}
}

func TestParseSeedRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name": "sources:\n  - url: https://a\n",
		"duplicate":    "sources:\n  - name: A\n  - name: A\n",
		"bad yaml":     "sources: [",
	}
	for name, body := range cases {
		if _, err := parseSeed([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSeedFile(t *testing.T) {
	got, err := LoadSeedFile("")
	if err != nil || len(got) != len(DefaultSources) {
		t.Fatalf("expected built-in sources, got %d (err %v)", len(got), err)
	}

	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte("sources:\n  - name: One\n    url: https://one\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err = LoadSeedFile(path)
	if err != nil || len(got) != 1 || got[0].Name != "One" {
		t.Fatalf("unexpected file sources: %+v (err %v)", got, err)
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultSourcesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range DefaultSources {
		if seen[s.Name] || s.URL == "" {
			t.Fatalf("bad default source %+v", s)
		}
		seen[s.Name] = true
	}
}

func TestSkipRowsShareReport(t *testing.T) {
	rows := skipRows([]aggregator.Skip{
		{SourceID: 1, SourceName: "A", Kind: "transport", Status: 502, Reason: "dial tcp: refused"},
		{SourceID: 2, SourceName: "B", Kind: "parse", Status: 502, Reason: "parse feed"},
	})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ReportID == "" || rows[0].ReportID != rows[1].ReportID {
		t.Fatalf("expected shared report id, got %q and %q", rows[0].ReportID, rows[1].ReportID)
	}
	if !strings.Contains(rows[0].Detail["reason"].(string), "refused") {
		t.Fatalf("unexpected detail: %v", rows[0].Detail)
	}
}
