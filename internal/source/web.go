package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// DefaultSelector picks the page's main content.
const DefaultSelector = "main"

const maxPageBytes = 5 << 20

// Scraper fetches web pages and extracts the text of one element.
type Scraper struct {
	client    *http.Client
	selector  string
	userAgent string
}

func NewScraper(timeout time.Duration, selector string) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if selector == "" {
		selector = DefaultSelector
	}
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		selector:  selector,
		userAgent: "askpdf/1.0",
	}
}

// Fetch downloads rawURL and returns the text of the first element matching
// the selector. Every failure is reported as ErrScrape.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: invalid url %q", domain.ErrScrape, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrScrape, err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrScrape, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", domain.ErrScrape, u, resp.StatusCode)
	}
	return HTMLText(io.LimitReader(resp.Body, maxPageBytes), s.selector)
}

// HTMLText parses an HTML document and returns the text of the first element
// matching selector, scripts and styles removed, one line per text line.
func HTMLText(r io.Reader, selector string) (string, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %w", domain.ErrScrape, err)
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: no <%s> element", domain.ErrScrape, selector)
	}
	sel.Find("script, style, noscript").Remove()

	text := collapseLines(sel.Text())
	if text == "" {
		return "", fmt.Errorf("%w: <%s> is empty", domain.ErrScrape, selector)
	}
	return text, nil
}

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
