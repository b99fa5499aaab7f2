package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	productHuntTokenURL   = "https://api.producthunt.com/v2/oauth/token"
	productHuntGraphQLURL = "https://api.producthunt.com/v2/api/graphql"
	productHuntFeedURL    = "https://www.producthunt.com/feed"
	productHuntMaxItems   = 20

	productHuntQuery = `{ posts(first: 20) { edges { node { id name tagline url votesCount createdAt } } } }`
)

// ErrNoCredentials 未配置 Product Hunt 的 client id / secret
var ErrNoCredentials = errors.New("producthunt: credentials not configured")

// ProductHuntFetcher 通过 GraphQL 抓取 Product Hunt 当日产品
type ProductHuntFetcher struct {
	ClientID     string
	ClientSecret string

	TokenURL   string
	GraphQLURL string

	Client *http.Client
}

func (p *ProductHuntFetcher) Name() string {
	return "producthunt"
}

type phResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node struct {
					ID         string `json:"id"`
					Name       string `json:"name"`
					Tagline    string `json:"tagline"`
					URL        string `json:"url"`
					VotesCount int    `json:"votesCount"`
					CreatedAt  string `json:"createdAt"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (p *ProductHuntFetcher) Fetch(ctx context.Context) ([]Item, error) {
	if p.ClientID == "" || p.ClientSecret == "" {
		return nil, ErrNoCredentials
	}

	base := p.Client
	if base == nil {
		base = &http.Client{Timeout: defaultTimeout}
	}
	cc := clientcredentials.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		TokenURL:     orDefault(p.TokenURL, productHuntTokenURL),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()
	tok, err := cc.Token(context.WithValue(tokenCtx, oauth2.HTTPClient, base))
	if err != nil {
		return nil, tokenError(p.Name(), err)
	}

	payload, err := json.Marshal(map[string]string{"query": productHuntQuery})
	if err != nil {
		return nil, parseError(p.Name(), "encode query", err)
	}
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), oauth2.StaticTokenSource(tok))
	body, err := doRequest(ctx, client, p.Name(), http.MethodPost, orDefault(p.GraphQLURL, productHuntGraphQLURL), payload, map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   defaultUserAgent,
	})
	if err != nil {
		return nil, err
	}

	var resp phResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, parseError(p.Name(), "decode graphql response", err)
	}
	if len(resp.Errors) > 0 {
		return nil, &FetchError{Kind: KindUpstream, Source: p.Name(), Msg: "graphql error: " + resp.Errors[0].Message}
	}

	items := make([]Item, 0, len(resp.Data.Posts.Edges))
	for _, e := range resp.Data.Posts.Edges {
		n := e.Node
		items = append(items, Item{
			Title:     n.Name,
			Link:      n.URL,
			Published: n.CreatedAt,
			Summary:   fmt.Sprintf("⬆ %d votes | %s", n.VotesCount, n.Tagline),
		})
	}
	if len(items) == 0 {
		return nil, parseError(p.Name(), "no posts in graphql response", nil)
	}
	return limitItems(items, productHuntMaxItems), nil
}

// NewProductHunt GraphQL 失败（缺凭据、token 失败、errors 字段、空结果）时退回 RSS
func NewProductHunt(gql *ProductHuntFetcher, feedURL string, client *http.Client) *Fallback {
	return &Fallback{
		Label:     gql.Name(),
		Msg:       "graphql and rss both failed",
		Primary:   gql,
		Secondary: &RSSFetcher{URL: orDefault(feedURL, productHuntFeedURL), Client: client},
	}
}
