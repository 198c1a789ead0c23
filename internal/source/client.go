// Package source fetches newsletter issues from the upstream publication
// API. The API is fussy about status filters across versions, so list calls
// walk an ordered set of parameter combinations and settle on the first that
// answers.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hindsite/internal/cache"
	"hindsite/internal/model"
	"hindsite/internal/util"
	"hindsite/internal/worker"
)

// Client talks to the publication posts API.
type Client struct {
	baseURL       string
	publicationID string
	apiKey        string
	pageSize      int
	webFallback   bool

	httpClient *http.Client
	userAgent  string
	maxBytes   int64

	limiter *worker.Limiter
	cache   cache.Cache // nil when caching is disabled
	robots  *util.RobotsChecker
	logger  *zap.Logger
}

// NewClient builds a source client from configuration.
func NewClient(cfg *model.Config, responseCache cache.Cache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:       cfg.Source.BaseURL,
		publicationID: cfg.Source.PublicationID,
		apiKey:        cfg.Source.APIKey,
		pageSize:      cfg.Source.PageSize,
		webFallback:   cfg.Source.WebFallback,
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		limiter:   worker.NewLimiter(cfg.Source.RatePerSecond, cfg.Source.RateBurst),
		cache:     responseCache,
		robots:    util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		logger:    logger,
	}
}

// listResponse is the posts-list envelope.
type listResponse struct {
	Data       []json.RawMessage `json:"data"`
	Pagination struct {
		NextPage int `json:"next_page"`
	} `json:"pagination"`
}

// paramSets are tried in order until one returns a 2xx. Older API versions
// reject the status filter entirely; newer ones require it.
func paramSets(limit, page int) []url.Values {
	base := func() url.Values {
		v := url.Values{}
		v.Set("limit", strconv.Itoa(limit))
		v.Set("page", strconv.Itoa(page))
		return v
	}

	plain := base()

	published := base()
	published.Set("status", "published")

	confirmed := base()
	confirmed.Set("status", "confirmed")

	return []url.Values{plain, published, confirmed}
}

// FetchPage fetches one page of issues. hasMore reports whether the API
// advertises a further page.
func (c *Client) FetchPage(ctx context.Context, page int) (issues []model.Issue, hasMore bool, err error) {
	endpoint := fmt.Sprintf("%s/publications/%s/posts", c.baseURL, c.publicationID)

	var lastErr error
	for _, params := range paramSets(c.pageSize, page) {
		body, attemptErr := c.getJSON(ctx, endpoint, params)
		if attemptErr != nil {
			lastErr = attemptErr
			c.logger.Debug("posts list attempt failed",
				zap.String("params", params.Encode()),
				zap.Error(attemptErr))
			continue
		}

		var resp listResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("decode posts list: %w", err)
			continue
		}

		now := time.Now().UTC()
		for _, raw := range resp.Data {
			issue, err := model.DecodeIssue(raw, now)
			if err != nil {
				// One undecodable record does not sink the page.
				c.logger.Warn("skipping undecodable post record", zap.Error(err))
				continue
			}
			if issue.RawContent == "" && c.webFallback && issue.URL != "" {
				c.fillFromWeb(ctx, &issue)
			}
			issues = append(issues, issue)
		}

		return issues, resp.Pagination.NextPage > page, nil
	}

	return nil, false, fmt.Errorf("all posts list attempts failed: %w", lastErr)
}

// getJSON performs a rate-limited, cached GET.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	fullURL := endpoint + "?" + params.Encode()

	if c.cache != nil {
		if body, found := c.cache.Get(cache.Key(fullURL)); found {
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx, fullURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(body))
	}

	if c.cache != nil {
		_ = c.cache.Set(cache.Key(fullURL), body, 0)
	}

	return body, nil
}

// fillFromWeb fetches the issue's public page when the API record carried no
// content. Honors robots.txt; failures leave the issue empty rather than
// erroring, since a content-free issue is simply skipped downstream.
func (c *Client) fillFromWeb(ctx context.Context, issue *model.Issue) {
	if !c.robots.Allowed(ctx, issue.URL) {
		c.logger.Debug("web fallback disallowed by robots.txt", zap.String("url", issue.URL))
		return
	}

	if err := c.limiter.Wait(ctx, issue.URL); err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issue.URL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("web fallback fetch failed", zap.String("url", issue.URL), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return
	}

	issue.RawContent = string(body)
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
