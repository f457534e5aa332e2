// Package websearch finds candidate recipe URLs via DuckDuckGo's HTML
// endpoint. Results arrive as redirect links whose real target is carried in
// the uddg query parameter; the client unwraps those, drops link-farm hosts,
// and deduplicates before handing URLs to the scrape stage.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/CulinaraAI/culinara-engine/pkg/fn"
	"github.com/CulinaraAI/culinara-engine/pkg/resilience"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// Browsers get served the JS-free HTML page; default Go user agents get
// blocked.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

const maxResponseBytes = 2 << 20

var resultLinkRe = regexp.MustCompile(`<a[^>]*class="result__a"[^>]*href="([^"]+)"`)

// blockedHosts are aggregators and social sites that never yield a scrapable
// recipe page.
var blockedHosts = []string{
	"pinterest.", "youtube.", "youtu.be", "reddit.", "facebook.",
	"instagram.", "tiktok.", "quora.", "amazon.",
}

// Client searches DuckDuckGo for recipe pages.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *resilience.Limiter
}

// Options configures the search client.
type Options struct {
	// BaseURL overrides the DuckDuckGo endpoint (tests).
	BaseURL string
	// Timeout bounds one search request.
	Timeout time.Duration
	// RequestsPerSecond paces outbound searches. Zero disables pacing.
	RequestsPerSecond float64
}

// New creates a search client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.Timeout},
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = resilience.NewLimiter(resilience.LimiterOpts{
			Rate:  opts.RequestsPerSecond,
			Burst: 1,
		})
	}
	return c
}

// Search returns up to limit recipe-page URLs for the query. The word
// "recipe" is appended when missing so the results skew toward cookable
// pages rather than restaurant listings.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("websearch: limiter: %w", err)
		}
	}

	q := query
	if !strings.Contains(strings.ToLower(q), "recipe") {
		q += " recipe"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?q="+url.QueryEscape(q), nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: search %q: status %d", query, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("websearch: read results: %w", err)
	}

	urls := extractResultURLs(string(body))
	urls = fn.Filter(urls, allowedURL)
	urls = fn.Unique(urls)
	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

// extractResultURLs pulls result anchors out of the HTML and unwraps
// DuckDuckGo redirect links.
func extractResultURLs(html string) []string {
	var out []string
	for _, m := range resultLinkRe.FindAllStringSubmatch(html, -1) {
		if u := unwrapRedirect(decodeEntities(m[1])); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// unwrapRedirect resolves a result href to the real target URL. Redirect
// links look like //duckduckgo.com/l/?uddg=<escaped target>&rut=...
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

func allowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, blocked := range blockedHosts {
		if strings.Contains(host, blocked) {
			return false
		}
	}
	return true
}

func decodeEntities(s string) string {
	return strings.NewReplacer("&amp;", "&", "&#x27;", "'", "&quot;", `"`).Replace(s)
}
