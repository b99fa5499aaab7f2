package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/LJTian/DevPulse/internal/processor"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	redditPublicURL        = "https://www.reddit.com"
	redditOAuthURL         = "https://oauth.reddit.com"
	redditTokenURL         = "https://www.reddit.com/api/v1/access_token"
	redditMaxItems         = 25
	redditDefaultSubreddit = "learnprogramming"
)

// RedditFetcher 抓取某个 subreddit 的 hot 列表。
// 配置了 client id / secret 时走 OAuth client-credentials，否则退回公开 JSON 接口（限流，尽力而为）
type RedditFetcher struct {
	Subreddit string

	ClientID     string
	ClientSecret string
	UserAgent    string

	PublicURL string
	OAuthURL  string
	TokenURL  string

	Client *http.Client
	// Limiter 只作用于公开接口
	Limiter *rate.Limiter
}

func (r *RedditFetcher) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Stickied    bool    `json:"stickied"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *RedditFetcher) hasCredentials() bool {
	return r.ClientID != "" && r.ClientSecret != ""
}

func (r *RedditFetcher) userAgent() string {
	if r.UserAgent != "" {
		return r.UserAgent
	}
	return defaultUserAgent
}

func (r *RedditFetcher) subreddit() string {
	if r.Subreddit == "" {
		return redditDefaultSubreddit
	}
	return r.Subreddit
}

func (r *RedditFetcher) Fetch(ctx context.Context) ([]Item, error) {
	var (
		body []byte
		err  error
	)
	if r.hasCredentials() {
		body, err = r.fetchOAuth(ctx)
	} else {
		body, err = r.fetchPublic(ctx)
	}
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, parseError(r.Name(), "decode listing", err)
	}

	items := make([]Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		p := child.Data
		// 置顶帖不参与排序
		if p.Stickied {
			continue
		}
		ts := int64(p.CreatedUTC)
		items = append(items, Item{
			Title:     p.Title,
			Link:      "https://reddit.com" + p.Permalink,
			Published: processor.FormatTimestamp(ts),
			Summary:   fmt.Sprintf("⬆ %d | 💬 %d comments", p.Score, p.NumComments),
			Extra: map[string]any{
				"score":     p.Score,
				"comments":  p.NumComments,
				"timestamp": ts,
			},
		})
	}
	return limitItems(items, redditMaxItems), nil
}

func (r *RedditFetcher) fetchOAuth(ctx context.Context) ([]byte, error) {
	base := withUserAgent(r.Client, r.userAgent())
	cc := clientcredentials.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		TokenURL:     orDefault(r.TokenURL, redditTokenURL),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tokenCtx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()
	tok, err := cc.Token(context.WithValue(tokenCtx, oauth2.HTTPClient, base))
	if err != nil {
		return nil, tokenError(r.Name(), err)
	}

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), oauth2.StaticTokenSource(tok))
	u := fmt.Sprintf("%s/r/%s/hot?limit=%d", strings.TrimRight(orDefault(r.OAuthURL, redditOAuthURL), "/"),
		url.PathEscape(r.subreddit()), redditMaxItems)
	return getBody(ctx, client, r.Name(), u, map[string]string{"User-Agent": r.userAgent()})
}

func (r *RedditFetcher) fetchPublic(ctx context.Context) ([]byte, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return nil, transportError(r.Name(), err)
		}
	}
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", strings.TrimRight(orDefault(r.PublicURL, redditPublicURL), "/"),
		url.PathEscape(r.subreddit()), redditMaxItems)
	return getBody(ctx, r.Client, r.Name(), u, map[string]string{"User-Agent": r.userAgent()})
}

// tokenError 区分 token 接口的非 2xx 与网络错误
func tokenError(source string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return statusError(source, re.Response.StatusCode)
	}
	return transportError(source, err)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
