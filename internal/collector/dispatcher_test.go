package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolvePrecedence(t *testing.T) {
	d := NewDispatcher(Options{})

	cases := []struct {
		name string
		desc Descriptor
		want string
	}{
		{"hacker news by name", Descriptor{Name: "Hacker News", URL: "https://example.com/rss", FeedType: "RSS"}, "hackernews"},
		{"reddit by name", Descriptor{Name: "Reddit Programming", URL: "https://reddit.com/r/programming", FeedType: "API"}, "reddit"},
		{"github trending by name", Descriptor{Name: "GitHub Trending", URL: "https://github.com/trending", FeedType: "Scraping"}, "github_trending"},
		{"product hunt by name", Descriptor{Name: "Product Hunt", FeedType: "GraphQL"}, "producthunt"},
		{"devto by name", Descriptor{Name: "DEV.to", FeedType: "API"}, "devto"},
		{"rss by type", Descriptor{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom", FeedType: "RSS"}, "rss"},
		{"json by type", Descriptor{Name: "Lobsters", URL: "https://lobste.rs/hottest.json", FeedType: "JSON"}, "json"},
		{"api dev.to url", Descriptor{Name: "Articles", URL: "https://dev.to/api/articles", FeedType: "api"}, "devto"},
		{"api hacker url", Descriptor{Name: "Top", URL: "https://hacker-news.firebaseio.com/v0/", FeedType: "api"}, "hackernews"},
		{"graphql producthunt url", Descriptor{Name: "Launches", URL: "https://api.producthunt.com/v2/api/graphql", FeedType: "graphql"}, "producthunt"},
		{"scraping github url", Descriptor{Name: "Repos", URL: "https://github.com/trending", FeedType: "scraping"}, "github_trending"},
		{"unknown type", Descriptor{Name: "Blog", URL: "https://example.com/feed"}, "generic"},
		{"api unmatched url", Descriptor{Name: "Other", URL: "https://example.com/api", FeedType: "api"}, "generic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := d.Resolve(tc.desc)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if f.Name() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, f.Name())
			}
		})
	}
}

func TestResolveSubreddit(t *testing.T) {
	d := NewDispatcher(Options{})

	cases := []struct {
		desc Descriptor
		want string
	}{
		{Descriptor{Name: "Reddit", URL: "https://reddit.com/r/golang", CustomSubreddit: "rust"}, "rust"},
		{Descriptor{Name: "Reddit r/python", URL: "https://reddit.com/r/golang"}, "python"},
		{Descriptor{Name: "Reddit", URL: "https://reddit.com/r/golang/.rss"}, "golang"},
		{Descriptor{Name: "Reddit", URL: "https://reddit.com"}, "learnprogramming"},
	}
	for _, tc := range cases {
		f, err := d.Resolve(tc.desc)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		rf, ok := f.(*RedditFetcher)
		if !ok {
			t.Fatalf("expected *RedditFetcher, got %T", f)
		}
		if rf.Subreddit != tc.want {
			t.Fatalf("%+v: expected subreddit %q, got %q", tc.desc, tc.want, rf.Subreddit)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	d := NewDispatcher(Options{})

	_, err := d.Resolve(Descriptor{Name: "Blog", FeedType: "rss"})
	if KindOf(err) != KindMalformed || StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected malformed 400, got %v", err)
	}

	_, err = d.Resolve(Descriptor{Name: "Repos", URL: "https://gitlab.com/explore", FeedType: "scraping"})
	if KindOf(err) != KindUnsupported || StatusCode(err) != http.StatusNotImplemented {
		t.Fatalf("expected unsupported 501, got %v", err)
	}

	_, err = d.Resolve(Descriptor{Name: "Other", URL: "https://example.com/graphql", FeedType: "graphql"})
	if KindOf(err) != KindUnsupported {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestFetchSubredditOverride(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, testListing)
	}))
	defer srv.Close()

	d := NewDispatcher(Options{RedditPublicURL: srv.URL})
	_, err := d.Fetch(context.Background(), Descriptor{Name: "Reddit", URL: "https://reddit.com/r/golang"}, "rust")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotPath != "/r/rust/hot.json" {
		t.Fatalf("expected override subreddit, got path %q", gotPath)
	}
}

func TestGenericFallback(t *testing.T) {
	jsonSrv := serve(t, `[{"title":"a"}]`, http.StatusOK)
	d := NewDispatcher(Options{})

	items, err := d.Fetch(context.Background(), Descriptor{Name: "Blog", URL: jsonSrv.URL}, "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "a" {
		t.Fatalf("expected json items after rss failure, got %+v", items)
	}

	badSrv := serve(t, "", http.StatusInternalServerError)
	_, err = d.Fetch(context.Background(), Descriptor{Name: "Blog", URL: badSrv.URL}, "")
	if KindOf(err) != KindUpstream || StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("expected upstream 502, got %v", err)
	}
}

func TestHackerNewsUsesDescriptorURL(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `[1]`)
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"title":"one","score":1,"time":1700000000}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := NewDispatcher(Options{})
	for _, desc := range []Descriptor{
		{Name: "Hacker News", URL: srv.URL, FeedType: "API"},
		{Name: "Top", URL: srv.URL + "/hacker", FeedType: "api"},
	} {
		f, err := d.Resolve(desc)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		hn, ok := f.(*HackerNewsFetcher)
		if !ok || hn.BaseURL != desc.URL {
			t.Fatalf("%+v: expected descriptor base url, got %#v", desc, f)
		}
	}

	items, err := d.Fetch(context.Background(), Descriptor{Name: "Hacker News", URL: srv.URL}, "")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if hits != 1 || len(items) != 1 {
		t.Fatalf("expected request to descriptor url, hits=%d items=%d", hits, len(items))
	}
}
