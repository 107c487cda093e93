package reading

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultNYTBaseURL = "https://api.nytimes.com/svc/search/v2"

// SearchResult is one article found by the search API.
type SearchResult struct {
	URL       string
	Headline  string
	Published string
}

// NYTClient queries the New York Times Article Search API.
type NYTClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NYTOption configures an NYTClient.
type NYTOption func(*NYTClient)

// WithNYTBaseURL sets the base URL (for testing).
func WithNYTBaseURL(u string) NYTOption {
	return func(c *NYTClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithNYTHTTPClient sets a custom HTTP client.
func WithNYTHTTPClient(client *http.Client) NYTOption {
	return func(c *NYTClient) {
		c.client = client
	}
}

// NewNYTClient creates a search client.
func NewNYTClient(apiKey string, opts ...NYTOption) (*NYTClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("NYT API key is required")
	}
	c := &NYTClient{
		apiKey:  apiKey,
		baseURL: defaultNYTBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type nytResponse struct {
	Response struct {
		Docs []struct {
			WebURL   string `json:"web_url"`
			Headline struct {
				Main string `json:"main"`
			} `json:"headline"`
			PubDate string `json:"pub_date"`
		} `json:"docs"`
	} `json:"response"`
	Fault *struct {
		FaultString string `json:"faultstring"`
	} `json:"fault"`
}

// Search returns the articles matching topic in the API's order.
func (c *NYTClient) Search(ctx context.Context, topic string) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("api-key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articlesearch.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nyt search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result nytResponse
	decodeErr := json.Unmarshal(raw, &result)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && result.Fault != nil && result.Fault.FaultString != "" {
			return nil, fmt.Errorf("nyt api error (status %d): %s", resp.StatusCode, result.Fault.FaultString)
		}
		return nil, fmt.Errorf("nyt api error (status %d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parsing response: %w", decodeErr)
	}

	out := make([]SearchResult, 0, len(result.Response.Docs))
	for _, d := range result.Response.Docs {
		if d.WebURL == "" {
			continue
		}
		out = append(out, SearchResult{URL: d.WebURL, Headline: d.Headline.Main, Published: d.PubDate})
	}
	return out, nil
}
