package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"hindsite/internal/model"
)

func testConfig(baseURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Source.BaseURL = baseURL
	cfg.Source.PublicationID = "pub-1"
	cfg.Source.APIKey = "key-1"
	cfg.Source.PageSize = 10
	cfg.Source.RatePerSecond = 1000
	cfg.Source.RateBurst = 1000
	cfg.Source.WebFallback = false
	return cfg
}

func TestClient_FetchPage_DecodesIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("Expected bearer auth, got %q", got)
		}
		fmt.Fprint(w, `{
			"data": [
				{"id": "p1", "title": "First", "web_url": "https://pub.example/p1",
				 "content_html": "<p>MySpace launched in 2003.</p>",
				 "published_at": "2024-03-01T12:00:00Z"},
				{"id": "p2", "title": "", "content": {"free": {"web": "plain body text"}},
				 "created_at": 1709300000}
			],
			"pagination": {"next_page": 2}
		}`)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil, nil)

	issues, hasMore, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !hasMore {
		t.Error("Expected hasMore from next_page > page")
	}
	if len(issues) != 2 {
		t.Fatalf("Expected 2 issues, got %d", len(issues))
	}

	if issues[0].ID != "p1" || issues[0].RawContent != "<p>MySpace launched in 2003.</p>" {
		t.Errorf("Expected content_html decoded, got %+v", issues[0])
	}
	if issues[0].PublishedAt.Year() != 2024 {
		t.Errorf("Expected RFC 3339 timestamp parsed, got %v", issues[0].PublishedAt)
	}

	if issues[1].Title != "Untitled" {
		t.Errorf("Expected missing title defaulted, got %q", issues[1].Title)
	}
	if issues[1].RawContent != "plain body text" {
		t.Errorf("Expected nested content map resolved, got %q", issues[1].RawContent)
	}
	if issues[1].PublishedAt.IsZero() {
		t.Error("Expected epoch created_at fallback parsed")
	}
}

func TestClient_FetchPage_ParamSetFallback(t *testing.T) {
	var calls []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		calls = append(calls, status)
		// Reject the status-free and "published" variants; only "confirmed"
		// answers, mimicking the fussier API version.
		if status != "confirmed" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error": "status required"}`)
			return
		}
		fmt.Fprint(w, `{"data": [{"id": "p1", "title": "T", "content_html": "<p>x 2003</p>"}], "pagination": {"next_page": 0}}`)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil, nil)

	issues, hasMore, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}
	if hasMore {
		t.Error("Expected no further pages")
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(issues))
	}
	if len(calls) != 3 || calls[0] != "" || calls[1] != "published" || calls[2] != "confirmed" {
		t.Errorf("Expected param sets tried in order, got %v", calls)
	}
}

func TestClient_FetchPage_AllParamSetsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil, nil)

	_, _, err := c.FetchPage(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error when every attempt fails")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected last status in error, got %v", err)
	}
}

func TestClient_FetchPage_SkipsUndecodableRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"id": "good", "title": "OK", "content_html": "<p>fine</p>"},
			"not an object at all"
		], "pagination": {"next_page": 0}}`)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil, nil)

	issues, _, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected page to survive one bad record, got %v", err)
	}
	if len(issues) != 1 || issues[0].ID != "good" {
		t.Errorf("Expected only the decodable record, got %+v", issues)
	}
}

func TestClient_FetchPage_Pagination(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		if page == "1" {
			fmt.Fprint(w, `{"data": [{"id": "p1", "content_html": "a"}], "pagination": {"next_page": 2}}`)
			return
		}
		fmt.Fprint(w, `{"data": [{"id": "p2", "content_html": "b"}], "pagination": {"next_page": 0}}`)
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL), nil, nil)

	_, hasMore, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !hasMore {
		t.Error("Expected more pages after page 1")
	}

	_, hasMore, err = c.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hasMore {
		t.Error("Expected no more pages after page 2")
	}
}

func TestClient_FetchPage_WebFallback(t *testing.T) {
	var mux http.ServeMux
	var webHits atomic.Int32

	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nAllow: /")
	})
	mux.HandleFunc("/publications/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": [{"id": "p1", "title": "T", "web_url": %q}], "pagination": {"next_page": 0}}`,
			server.URL+"/posts/p1")
	})
	mux.HandleFunc("/posts/p1", func(w http.ResponseWriter, r *http.Request) {
		webHits.Add(1)
		fmt.Fprint(w, "<html><body><p>Recovered from the public page in 2003.</p></body></html>")
	})

	cfg := testConfig(server.URL)
	cfg.Source.WebFallback = true
	c := NewClient(cfg, nil, nil)

	issues, _, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(issues))
	}
	if webHits.Load() != 1 {
		t.Errorf("Expected one web fallback fetch, got %d", webHits.Load())
	}
	if !strings.Contains(issues[0].RawContent, "Recovered from the public page") {
		t.Errorf("Expected content filled from web, got %q", issues[0].RawContent)
	}
}

func TestClient_FetchPage_WebFallbackHonorsRobots(t *testing.T) {
	var mux http.ServeMux
	var webHits atomic.Int32

	server := httptest.NewServer(&mux)
	defer server.Close()

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /posts/")
	})
	mux.HandleFunc("/publications/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": [{"id": "p1", "title": "T", "web_url": %q}], "pagination": {"next_page": 0}}`,
			server.URL+"/posts/p1")
	})
	mux.HandleFunc("/posts/p1", func(w http.ResponseWriter, r *http.Request) {
		webHits.Add(1)
	})

	cfg := testConfig(server.URL)
	cfg.Source.WebFallback = true
	c := NewClient(cfg, nil, nil)

	issues, _, err := c.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if webHits.Load() != 0 {
		t.Error("Expected robots.txt to block the web fallback fetch")
	}
	if len(issues) != 1 || issues[0].RawContent != "" {
		t.Errorf("Expected issue kept with empty content, got %+v", issues)
	}
}
