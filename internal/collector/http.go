package collector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

const (
	maxResponseBytes = 4 << 20 // 4MB，防止超大响应
	defaultUserAgent = "DevPulse/1.0"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	defaultTimeout = 15 * time.Second
	itemTimeout    = 5 * time.Second
	tokenTimeout   = 10 * time.Second
)

// doRequest 发送请求并读取响应体，把失败归类为 FetchError
func doRequest(ctx context.Context, client *http.Client, source, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, malformedError(source, "invalid url "+url)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(source, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(source, err)
	}
	return data, nil
}

func getBody(ctx context.Context, client *http.Client, source, url string, headers map[string]string) ([]byte, error) {
	return doRequest(ctx, client, source, http.MethodGet, url, nil, headers)
}

// userAgentTransport 给所有请求（包括 oauth2 换取 token 的请求）补上 User-Agent
type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.ua)
	}
	return t.base.RoundTrip(req)
}

func withUserAgent(client *http.Client, ua string) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := *client
	c.Transport = &userAgentTransport{base: base, ua: ua}
	return &c
}
