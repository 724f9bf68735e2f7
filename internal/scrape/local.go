package scrape

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
)

const localUserAgent = "Mozilla/5.0 (compatible; ShelfmetricsBot/1.0)"

// LocalScraper fetches HTML via net/http, honoring robots.txt, and
// converts pages to readable text. Free, no API calls; last link in the
// chain.
type LocalScraper struct {
	client *http.Client

	mu     sync.Mutex
	robots map[string]*robotstxt.Group // per-host, nil entry = no robots.txt
}

// NewLocalScraper creates a LocalScraper with sensible defaults.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		robots: make(map[string]*robotstxt.Group),
	}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Scrape fetches a URL and extracts the readable article text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Page, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: parse url")
	}

	allowed, err := l.robotsAllowed(ctx, parsed)
	if err == nil && !allowed {
		return nil, eris.Errorf("local_http: disallowed by robots.txt: %s", targetURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", localUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	title, content := extractReadable(body, parsed)
	if strings.TrimSpace(content) == "" {
		return nil, eris.Errorf("local_http: no readable content in %s", targetURL)
	}

	return &Page{
		URL:        targetURL,
		Title:      title,
		Content:    content,
		StatusCode: resp.StatusCode,
		Source:     l.Name(),
	}, nil
}

// extractReadable runs readability extraction with a goquery fallback for
// pages readability cannot parse (sparse product pages, tables).
func extractReadable(body []byte, pageURL *url.URL) (title, content string) {
	article, err := readability.FromReader(strings.NewReader(string(body)), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, article.TextContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find("script, style, noscript").Remove()
	content = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return title, content
}

// robotsAllowed checks the host's robots.txt, caching the parsed group.
// Fetch failures are treated as "allowed": most product sites have none.
func (l *LocalScraper) robotsAllowed(ctx context.Context, pageURL *url.URL) (bool, error) {
	host := pageURL.Host

	l.mu.Lock()
	group, ok := l.robots[host]
	l.mu.Unlock()

	if !ok {
		group = l.fetchRobots(ctx, pageURL)
		l.mu.Lock()
		l.robots[host] = group
		l.mu.Unlock()
	}

	if group == nil {
		return true, nil
	}
	return group.Test(pageURL.Path), nil
}

func (l *LocalScraper) fetchRobots(ctx context.Context, pageURL *url.URL) *robotstxt.Group {
	robotsURL := pageURL.Scheme + "://" + pageURL.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", localUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil
	}
	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return robots.FindGroup(localUserAgent)
}
