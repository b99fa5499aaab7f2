package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LJTian/DevPulse/internal/aggregator"
	"github.com/LJTian/DevPulse/internal/collector"
	"github.com/LJTian/DevPulse/internal/ranking"
	"github.com/gin-gonic/gin"
)

type fakeService struct {
	feedErr  error
	lastID   uint
	lastMode ranking.Mode
	lastSub  string
	lastCat  string
}

func (f *fakeService) Sources(ctx context.Context, category string) ([]collector.Descriptor, error) {
	f.lastCat = category
	return []collector.Descriptor{{ID: 1, Name: "Hacker News", FeedType: "API", Category: "News & Discussions", Icon: "Y"}}, nil
}

func (f *fakeService) Feed(ctx context.Context, id uint, mode ranking.Mode, subreddit string) ([]collector.Item, error) {
	f.lastID, f.lastMode, f.lastSub = id, mode, subreddit
	if f.feedErr != nil {
		return nil, f.feedErr
	}
	return []collector.Item{{Title: "a", Source: "Hacker News"}}, nil
}

func (f *fakeService) AllFeeds(ctx context.Context, mode ranking.Mode, category string) ([]collector.Item, error) {
	f.lastMode, f.lastCat = mode, category
	return nil, nil
}

type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, svc FeedService, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(svc, nil).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	if path != "/health" {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestHealth(t *testing.T) {
	w, _ := do(t, &fakeService{}, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestFeedOK(t *testing.T) {
	svc := &fakeService{}
	w, env := do(t, svc, "/api/v1/feeds/3?sort=new&subreddit=rust")
	if w.Code != http.StatusOK || env.Code != "ok" {
		t.Fatalf("unexpected response %d %+v", w.Code, env)
	}
	if svc.lastID != 3 || svc.lastMode != ranking.ModeNew || svc.lastSub != "rust" {
		t.Fatalf("unexpected call: id=%d mode=%s sub=%s", svc.lastID, svc.lastMode, svc.lastSub)
	}
	var items []collector.Item
	if err := json.Unmarshal(env.Data, &items); err != nil || len(items) != 1 || items[0].Title != "a" {
		t.Fatalf("unexpected data %s (err %v)", env.Data, err)
	}
}

func TestFeedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		path string
		want int
	}{
		{"bad id", nil, "/api/v1/feeds/abc", http.StatusBadRequest},
		{"not found", aggregator.ErrSourceNotFound, "/api/v1/feeds/9", http.StatusNotFound},
		{"upstream", &collector.FetchError{Kind: collector.KindTransport, Source: "rss", Msg: "request failed"}, "/api/v1/feeds/1", http.StatusBadGateway},
		{"unsupported", &collector.FetchError{Kind: collector.KindUnsupported, Source: "x", Msg: "no scraper"}, "/api/v1/feeds/1", http.StatusNotImplemented},
		{"malformed", &collector.FetchError{Kind: collector.KindMalformed, Source: "x", Msg: "source url is required"}, "/api/v1/feeds/1", http.StatusBadRequest},
		{"internal", errors.New("db down"), "/api/v1/feeds/1", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := do(t, &fakeService{feedErr: tc.err}, tc.path)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestAllFeedsDefaultsToHot(t *testing.T) {
	svc := &fakeService{}
	w, env := do(t, svc, "/api/v1/feeds?category=blog&sort=bogus")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastMode != ranking.ModeHot || svc.lastCat != "blog" {
		t.Fatalf("unexpected call: mode=%s cat=%s", svc.lastMode, svc.lastCat)
	}
	if string(env.Data) != "[]" {
		t.Fatalf("expected empty list, got %s", env.Data)
	}
}

func TestListSources(t *testing.T) {
	w, env := do(t, &fakeService{}, "/api/v1/sources")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []sourceView
	if err := json.Unmarshal(env.Data, &list); err != nil || len(list) != 1 || list[0].Icon != "Y" {
		t.Fatalf("unexpected sources %s (err %v)", env.Data, err)
	}
}

func TestListSkipsWithoutStore(t *testing.T) {
	w, env := do(t, &fakeService{}, "/api/v1/skips")
	if w.Code != http.StatusOK || string(env.Data) != "[]" {
		t.Fatalf("unexpected response %d %s", w.Code, env.Data)
	}
}
