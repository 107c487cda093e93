package reading_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/p-n-ai/pai-vocab/internal/reading"
)

func TestNewNYTClient_EmptyKey(t *testing.T) {
	if _, err := reading.NewNYTClient(""); err == nil {
		t.Fatal("NewNYTClient() should return error for empty key")
	}
}

func TestNYTClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articlesearch.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "medical" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("api-key"); got != "nyt-key" {
			t.Errorf("api-key = %q", got)
		}
		_, _ = w.Write([]byte(`{"response":{"docs":[
			{"web_url":"https://www.nytimes.com/2026/10/17/health/flu.html","headline":{"main":"Flu Season Arrives Early"},"pub_date":"2026-10-17T09:00:00+0000"},
			{"web_url":"","headline":{"main":"No link"}}
		]}}`))
	}))
	defer server.Close()

	client, err := reading.NewNYTClient("nyt-key", reading.WithNYTBaseURL(server.URL+"/"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := client.Search(context.Background(), "medical")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []reading.SearchResult{{
		URL:       "https://www.nytimes.com/2026/10/17/health/flu.html",
		Headline:  "Flu Season Arrives Early",
		Published: "2026-10-17T09:00:00+0000",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Search() mismatch (-want +got):\n%s", diff)
	}
}

func TestNYTClient_Search_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"fault":{"faultstring":"Rate limit quota violation"}}`))
	}))
	defer server.Close()

	client, _ := reading.NewNYTClient("k", reading.WithNYTBaseURL(server.URL))
	_, err := client.Search(context.Background(), "politics")
	if err == nil || !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota") {
		t.Errorf("Search() error = %v, want status and fault", err)
	}
}
