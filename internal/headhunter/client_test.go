package headhunter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()

	c := New(context.Background(), zap.NewNop(), token)
	c.APIURL = srv.URL
	c.HTTPClient = srv.Client()
	// No pacing in tests.
	c.SetRateLimit(0)

	return c
}

func TestGetItemsPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": fmt.Sprintf("%d-a", page)},
				{"id": fmt.Sprintf("%d-b", page)},
			},
			"found":    6,
			"pages":    3,
			"page":     page,
			"per_page": 2,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	items, err := c.GetItems(srv.URL+SearchPath, url.Values{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected all 6 items, got %d", len(items))
	}

	items, err = c.GetItems(srv.URL+SearchPath, url.Values{}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items with a 2 page bound, got %d", len(items))
	}
}

func TestSearchMergesAndDedupes(t *testing.T) {
	var mu sync.Mutex
	var texts []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		texts = append(texts, r.URL.Query().Get("text"))
		mu.Unlock()

		// Both sub-searches return an overlapping set.
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "1", "name": "Go Developer", "published_at": "2024-03-10T12:00:00+0300"},
				{"id": "2", "name": "Backend Engineer", "published_at": "2024-03-12T12:00:00+0300"},
			},
			"found":    2,
			"pages":    1,
			"page":     0,
			"per_page": 10,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	found, err := c.Search(&SearchRequest{
		Text:       "golang",
		Frameworks: []string{"gin", "echo"},
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if found.Len() != 2 {
		t.Fatalf("expected 2 unique vacancies, got %d", found.Len())
	}
	// Newest first.
	if found.Items[0].ID != "2" {
		t.Fatalf("expected vacancy 2 first, got %q", found.Items[0].ID)
	}

	if len(texts) != 2 {
		t.Fatalf("expected 2 sub-searches, got %d", len(texts))
	}
	seen := map[string]bool{}
	for _, text := range texts {
		seen[text] = true
	}
	if !seen["golang gin"] || !seen["golang echo"] {
		t.Fatalf("unexpected sub-search texts: %v", texts)
	}
}

func TestSearchQueryParams(t *testing.T) {
	var mu sync.Mutex
	var q url.Values

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		q = r.URL.Query()
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}, "pages": 1, "page": 0})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	_, err := c.Search(&SearchRequest{
		Text:       "golang",
		Experience: []string{"between1And3"},
		Salary:     200000,
		WithTest:   false,
		Limit:      50,
		WorkFormat: "REMOTE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expect := map[string]string{
		"text":          "golang",
		"experience":    "between1And3",
		"salary":        "200000",
		"has_test":      "false",
		"work_format":   "REMOTE",
		"order_by":      orderByPublication,
		"ored_clusters": "true",
		"per_page":      "50",
	}
	for key, want := range expect {
		if got := q.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestSearchFailsWhenAllSubSearchesFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	if _, err := c.Search(&SearchRequest{Text: "golang", Limit: 10}); err == nil {
		t.Fatalf("expected error when every sub-search fails")
	}
}

func TestGetVacancy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vacancies/123" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "123",
			"name":        "Go Developer",
			"description": "<p>Build <strong>services</strong></p>",
			"key_skills":  []map[string]any{{"name": "Go"}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv, "")

	vacancy, err := c.GetVacancy("123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vacancy.Name != "Go Developer" {
		t.Fatalf("unexpected name: %q", vacancy.Name)
	}
	if got := vacancy.PlainDescription(); got != "Build services" {
		t.Fatalf("unexpected description: %q", got)
	}
	if len(vacancy.KeySkills) != 1 || vacancy.KeySkills[0].Name != "Go" {
		t.Fatalf("unexpected key skills: %v", vacancy.KeySkills)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var mu sync.Mutex
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = r.Header.Get("Authorization")
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}, "pages": 1, "page": 0})
	}))
	defer srv.Close()

	anonymous := newTestClient(t, srv, "")
	if _, err := anonymous.GetItems(srv.URL+SearchPath, url.Values{}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "" {
		t.Fatalf("expected no Authorization header without a token, got %q", auth)
	}

	authorized := newTestClient(t, srv, "secret")
	if _, err := authorized.GetItems(srv.URL+SearchPath, url.Values{}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", auth)
	}
}
