package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dictameal/backend/internal/httpclient"
	"golang.org/x/net/html"
)

const (
	providerName = "duckduckgo"
	// maxPageSize caps how much of the result page is parsed.
	maxPageSize = 1 << 20
)

// Result is one web search hit.
type Result struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Client queries the DuckDuckGo HTML endpoint, which needs no API key.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a search client. baseURL is normally
// https://html.duckduckgo.com/html/ and is overridable for tests.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpclient.New(timeout),
	}
}

// Search returns at most maxResults hits in the order the provider ranks
// them. Hits without a title are skipped.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	ctx = httpclient.WithProvider(ctx, providerName)

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error (status %d)", resp.StatusCode)
	}

	return parseResults(io.LimitReader(resp.Body, maxPageSize), maxResults)
}

func parseResults(r io.Reader, maxResults int) ([]Result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var results []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") {
			if res := readResult(n); res.Title != "" {
				results = append(results, res)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return results, nil
}

func readResult(n *html.Node) Result {
	var res Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				res.Title = textContent(n)
				res.URL = unwrapRedirect(attr(n, "href"))
				return
			case hasClass(n, "result__snippet"):
				res.Body = textContent(n)
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return res
}

// unwrapRedirect turns //duckduckgo.com/l/?uddg=<target>&rut=... into target.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil || !strings.HasSuffix(u.Host, "duckduckgo.com") || u.Path != "/l/" {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
