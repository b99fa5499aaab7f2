package collector

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/time/rate"
)

// Options 构造各 Fetcher 所需的共享依赖与凭据；端点字段为空时使用线上地址
type Options struct {
	Client    *http.Client
	UserAgent string

	DevToAPIKey        string
	GitHubToken        string
	RedditClientID     string
	RedditClientSecret string
	ProductHuntID      string
	ProductHuntSecret  string

	// RedditLimiter 公开接口共享的限流器，为空时不限流
	RedditLimiter *rate.Limiter

	HackerNewsURL      string
	RedditPublicURL    string
	RedditOAuthURL     string
	RedditTokenURL     string
	DevToURL           string
	ProductHuntToken   string
	ProductHuntGraphQL string
	ProductHuntFeed    string
}

// Rule 一条分发规则：match 命中后由 build 构造 Fetcher
type Rule struct {
	Name  string
	match func(d Descriptor) bool
	build func(d Descriptor) (Fetcher, error)
}

// Dispatcher 按规则顺序为描述选出 Fetcher，先命中者生效
type Dispatcher struct {
	opts  Options
	rules []Rule
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: defaultTimeout}
	}
	d := &Dispatcher{opts: opts}
	d.rules = d.defaultRules()
	return d
}

var subredditPattern = regexp.MustCompile(`r/([A-Za-z0-9_]+)`)

func (d *Dispatcher) defaultRules() []Rule {
	return []Rule{
		{
			Name:  "hackernews",
			match: func(s Descriptor) bool { return containsAll(s.lowerName(), "hacker", "news") },
			build: func(s Descriptor) (Fetcher, error) { return d.hackerNews(s.URL), nil },
		},
		{
			Name:  "reddit",
			match: func(s Descriptor) bool { return strings.Contains(s.lowerName(), "reddit") },
			build: func(s Descriptor) (Fetcher, error) { return d.reddit(pickSubreddit(s)), nil },
		},
		{
			Name:  "github_trending",
			match: func(s Descriptor) bool { return containsAll(s.lowerName(), "github", "trending") },
			build: func(s Descriptor) (Fetcher, error) { return d.github(s.URL), nil },
		},
		{
			Name:  "producthunt",
			match: func(s Descriptor) bool { return containsAll(s.lowerName(), "product", "hunt") },
			build: func(s Descriptor) (Fetcher, error) { return d.productHunt(), nil },
		},
		{
			Name: "devto",
			match: func(s Descriptor) bool {
				n := s.lowerName()
				return strings.Contains(n, "dev.to") || strings.Contains(n, "devto")
			},
			build: func(s Descriptor) (Fetcher, error) { return d.devTo(), nil },
		},
		{
			Name:  "rss",
			match: func(s Descriptor) bool { return s.lowerType() == "rss" },
			build: func(s Descriptor) (Fetcher, error) { return &RSSFetcher{URL: s.URL, Client: d.opts.Client}, nil },
		},
		{
			Name:  "json",
			match: func(s Descriptor) bool { return s.lowerType() == "json" },
			build: func(s Descriptor) (Fetcher, error) { return &JSONFetcher{URL: s.URL, Client: d.opts.Client}, nil },
		},
		{
			Name: "api",
			match: func(s Descriptor) bool {
				u := s.lowerURL()
				return s.lowerType() == "api" && (strings.Contains(u, "dev.to") || strings.Contains(u, "hacker"))
			},
			build: func(s Descriptor) (Fetcher, error) {
				if strings.Contains(s.lowerURL(), "dev.to") {
					return d.devTo(), nil
				}
				return d.hackerNews(s.URL), nil
			},
		},
		{
			Name:  "graphql",
			match: func(s Descriptor) bool { return s.lowerType() == "graphql" },
			build: func(s Descriptor) (Fetcher, error) {
				if strings.Contains(s.lowerURL(), "producthunt") {
					return d.productHunt(), nil
				}
				return nil, unsupportedError(s.Name, "no graphql adapter for "+s.URL)
			},
		},
		{
			Name:  "scraping",
			match: func(s Descriptor) bool { return s.lowerType() == "scraping" },
			build: func(s Descriptor) (Fetcher, error) {
				if strings.Contains(s.lowerURL(), "github") {
					return d.github(s.URL), nil
				}
				return nil, unsupportedError(s.Name, "no scraper for "+s.URL)
			},
		},
	}
}

// Resolve 返回描述对应的 Fetcher；无规则命中时依次尝试 RSS 和 JSON
func (d *Dispatcher) Resolve(s Descriptor) (Fetcher, error) {
	if s.URL == "" && s.lowerType() != "api" && s.lowerType() != "graphql" {
		return nil, malformedError(s.Name, "source url is required")
	}
	for _, r := range d.rules {
		if r.match(s) {
			return r.build(s)
		}
	}
	return &Fallback{
		Label:     "generic",
		Msg:       "could not fetch feed from url",
		Primary:   &RSSFetcher{URL: s.URL, Client: d.opts.Client},
		Secondary: &JSONFetcher{URL: s.URL, Client: d.opts.Client},
	}, nil
}

// Fetch 解析并执行抓取；subreddit 非空时覆盖描述中的 subreddit
func (d *Dispatcher) Fetch(ctx context.Context, s Descriptor, subreddit string) ([]Item, error) {
	if subreddit != "" {
		s.CustomSubreddit = subreddit
	}
	f, err := d.Resolve(s)
	if err != nil {
		return nil, err
	}
	return f.Fetch(ctx)
}

// hackerNews 优先使用描述中的 API 地址
func (d *Dispatcher) hackerNews(url string) Fetcher {
	return &HackerNewsFetcher{BaseURL: orDefault(url, d.opts.HackerNewsURL), Client: d.opts.Client}
}

func (d *Dispatcher) reddit(sub string) Fetcher {
	return &RedditFetcher{
		Subreddit:    sub,
		ClientID:     d.opts.RedditClientID,
		ClientSecret: d.opts.RedditClientSecret,
		UserAgent:    d.opts.UserAgent,
		PublicURL:    d.opts.RedditPublicURL,
		OAuthURL:     d.opts.RedditOAuthURL,
		TokenURL:     d.opts.RedditTokenURL,
		Client:       d.opts.Client,
		Limiter:      d.opts.RedditLimiter,
	}
}

func (d *Dispatcher) github(url string) Fetcher {
	return &GitHubTrendingFetcher{URL: url, Token: d.opts.GitHubToken, Client: d.opts.Client}
}

func (d *Dispatcher) devTo() Fetcher {
	return &DevToFetcher{URL: d.opts.DevToURL, APIKey: d.opts.DevToAPIKey, Client: d.opts.Client}
}

func (d *Dispatcher) productHunt() Fetcher {
	return NewProductHunt(&ProductHuntFetcher{
		ClientID:     d.opts.ProductHuntID,
		ClientSecret: d.opts.ProductHuntSecret,
		TokenURL:     d.opts.ProductHuntToken,
		GraphQLURL:   d.opts.ProductHuntGraphQL,
		Client:       d.opts.Client,
	}, d.opts.ProductHuntFeed, d.opts.Client)
}

// pickSubreddit 覆盖值 > 名称中的 r/xxx > URL 中的 r/xxx > 默认值
func pickSubreddit(s Descriptor) string {
	if s.CustomSubreddit != "" {
		return s.CustomSubreddit
	}
	if m := subredditPattern.FindStringSubmatch(s.Name); m != nil {
		return m[1]
	}
	if m := subredditPattern.FindStringSubmatch(s.URL); m != nil {
		return m[1]
	}
	return redditDefaultSubreddit
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
