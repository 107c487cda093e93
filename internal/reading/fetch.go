package reading

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxPageSize bounds the article HTML read from untrusted pages.
const maxPageSize = 10 << 20

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is the readable part of a fetched article.
type Page struct {
	Title      string
	Byline     string
	Paragraphs []string
}

// PageFetcher downloads article pages and extracts their body paragraphs.
type PageFetcher struct {
	client *http.Client
}

// NewPageFetcher creates a fetcher. A nil client gets a 30 second timeout.
func NewPageFetcher(client *http.Client) *PageFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PageFetcher{client: client}
}

// Fetch downloads rawURL and runs readability over it.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, fmt.Errorf("parsing url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > maxPageSize {
		return Page{}, fmt.Errorf("fetching %s: content length %d exceeds %d bytes", rawURL, resp.ContentLength, maxPageSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return Page{}, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(body) > maxPageSize {
		return Page{}, fmt.Errorf("fetching %s: body exceeds %d bytes", rawURL, maxPageSize)
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("extracting article from %s: %w", rawURL, err)
	}

	return Page{
		Title:      strings.TrimSpace(article.Title),
		Byline:     strings.TrimSpace(article.Byline),
		Paragraphs: Paragraphs(article.Content, article.TextContent),
	}, nil
}

// Paragraphs returns the text of every <p> in contentHTML with whitespace
// collapsed. When the markup has no paragraphs, text is split on blank lines.
func Paragraphs(contentHTML, text string) []string {
	var out []string
	if doc, err := html.Parse(strings.NewReader(contentHTML)); err == nil {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && n.DataAtom == atom.P {
				if p := collapse(nodeText(n)); p != "" {
					out = append(out, p)
				}
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(doc)
	}
	if len(out) > 0 {
		return out
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, block := range strings.Split(text, "\n\n") {
		if p := collapse(block); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
