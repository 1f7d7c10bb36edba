package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/hh-covergen/internal/ai"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	c, err := New(&Config{
		URL:         srv.URL,
		Model:       "saiga",
		MaxTokens:   350,
		Temperature: 0.5,
		TopP:        0.85,
		Stop:        []string{"\n\n\n"},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return c
}

func TestGenerateSendsProtocolPayload(t *testing.T) {
	var got generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "  Добрый день!</s>\n Это  письмо."})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	output, err := c.Generate(context.Background(), "напиши письмо")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output != "Добрый день!\nЭто письмо." {
		t.Fatalf("expected cleaned output, got %q", output)
	}

	if got.Model != "saiga" {
		t.Fatalf("unexpected model: %q", got.Model)
	}
	if got.Prompt != "напиши письмо" {
		t.Fatalf("unexpected prompt: %q", got.Prompt)
	}
	if got.Stream {
		t.Fatalf("expected stream to be disabled")
	}
	if got.Options.NumPredict != 350 || got.Options.Temperature != 0.5 || got.Options.TopP != 0.85 {
		t.Fatalf("unexpected options: %+v", got.Options)
	}
	if len(got.Options.Stop) != 1 || got.Options.Stop[0] != "\n\n\n" {
		t.Fatalf("unexpected stop sequences: %v", got.Options.Stop)
	}
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestGenerateMissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"done": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ai.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestGenerateUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatalf("expected error for 404")
	}
	if errors.Is(err, ai.ErrBackendUnavailable) || errors.Is(err, ai.ErrInvalidResponse) {
		t.Fatalf("expected a plain transport error, got %v", err)
	}
}

func TestNewRequiresModel(t *testing.T) {
	if _, err := New(&Config{URL: "http://localhost:11434"}, zap.NewNop()); err == nil {
		t.Fatalf("expected error without a model")
	}
}
