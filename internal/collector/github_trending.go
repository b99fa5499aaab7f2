package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/LJTian/DevPulse/internal/processor"
	"github.com/gocolly/colly/v2"
)

const (
	githubTrendingURL  = "https://github.com/trending"
	githubMaxItems     = 25
	githubDescMaxRunes = 200
)

// GitHubTrendingFetcher 抓取 GitHub Trending 页面，每个 article.Box-row 是一个仓库
type GitHubTrendingFetcher struct {
	URL       string
	Token     string
	UserAgent string
	Client    *http.Client
}

func (g *GitHubTrendingFetcher) Name() string {
	return "github_trending"
}

func (g *GitHubTrendingFetcher) Fetch(ctx context.Context) ([]Item, error) {
	target := orDefault(g.URL, githubTrendingURL)
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return nil, malformedError(g.Name(), "invalid url "+target)
	}
	if err := ctx.Err(); err != nil {
		return nil, transportError(g.Name(), err)
	}
	siteBase := u.Scheme + "://" + u.Host

	c := colly.NewCollector(
		// 带端口的地址两种写法都放行
		colly.AllowedDomains(u.Hostname(), u.Host),
		colly.UserAgent(orDefault(g.UserAgent, browserUserAgent)),
	)
	if g.Client != nil {
		// colly 会改写 client 的超时，复制一份避免影响共享 client
		cl := *g.Client
		c.SetClient(&cl)
	}
	c.SetRequestTimeout(requestTimeout(ctx))

	c.OnRequest(func(r *colly.Request) {
		if g.Token != "" {
			r.Headers.Set("Authorization", "token "+g.Token)
		}
	})

	var (
		results  = make([]Item, 0, githubMaxItems)
		fetchErr error
	)
	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = statusError(g.Name(), r.StatusCode)
			return
		}
		fetchErr = transportError(g.Name(), err)
	})

	c.OnHTML("article.Box-row", func(e *colly.HTMLElement) {
		if len(results) >= githubMaxItems {
			return
		}
		titleSel := e.DOM.Find("h2 a").First()
		if titleSel.Length() == 0 {
			return
		}
		href, ok := titleSel.Attr("href")
		if !ok {
			return
		}

		// "owner /\n   repo" 去掉空白后规范成 "owner / repo"
		repoName := strings.Join(strings.Fields(titleSel.Text()), "")
		repoName = strings.ReplaceAll(repoName, "/", " / ")

		starsText := strings.TrimSpace(e.ChildText(`a[href$="/stargazers"]`))
		language := strings.TrimSpace(e.ChildText("[itemprop='programmingLanguage']"))
		desc := strings.Join(strings.Fields(e.ChildText("p")), " ")

		results = append(results, Item{
			Title:   repoName,
			Link:    siteBase + strings.TrimSpace(href),
			Summary: githubSummary(language, starsText, desc),
			Extra: map[string]any{
				"stars":    parseStars(starsText),
				"language": language,
			},
		})
	})

	if err := c.Visit(target); err != nil && fetchErr == nil {
		fetchErr = transportError(g.Name(), err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if len(results) == 0 {
		return nil, parseError(g.Name(), "no repository rows found", nil)
	}
	return results, nil
}

func githubSummary(language, stars, desc string) string {
	if language == "" {
		language = "Unknown"
	}
	if stars == "" {
		stars = "0"
	}
	if r := []rune(desc); len(r) > githubDescMaxRunes {
		desc = string(r[:githubDescMaxRunes]) + "..."
	}
	return processor.CleanHTML(fmt.Sprintf("🔤 %s | ⭐ %s %s", language, stars, desc))
}

// requestTimeout 按 ctx 剩余时间设置 colly 的请求超时
func requestTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
		return time.Millisecond
	}
	return defaultTimeout
}

// parseStars 将 GitHub Trending 中“12.3k”之类的文本解析为整数
func parseStars(text string) int {
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	multiplier := 1.0
	if strings.HasSuffix(text, "k") || strings.HasSuffix(text, "K") {
		multiplier = 1000
		text = strings.TrimSuffix(strings.TrimSuffix(text, "k"), "K")
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return int(f * multiplier)
}
