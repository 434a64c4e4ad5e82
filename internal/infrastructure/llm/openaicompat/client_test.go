package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/micromerit/ai-service/internal/core/domain"
)

func TestGenerateJSONSendsResponseFormatAndKey(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" {\"skills\":[]} "}}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL + "/openai/v1/", APIKey: "gsk_test", Model: "llama-3.1-8b-instant"}, nil, nil)
	out, err := client.GenerateJSONFromPrompt(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("GenerateJSONFromPrompt() error = %v", err)
	}
	if out != `{"skills":[]}` {
		t.Fatalf("unexpected output %q", out)
	}
	if auth != "Bearer gsk_test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.ResponseFormat["type"] != "json_object" || got.Model != "llama-3.1-8b-instant" {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "prompt" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestGenerateTextOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "m"}, nil, nil)
	if _, err := client.GenerateFromPrompt(context.Background(), "hi"); err != nil {
		t.Fatalf("GenerateFromPrompt() error = %v", err)
	}
	if _, ok := raw["response_format"]; ok {
		t.Fatalf("response_format must be omitted for text mode: %v", raw)
	}
}

func TestRateLimitedIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "m"}, nil, nil)
	_, err := client.GenerateFromPrompt(context.Background(), "hi")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestEmptyChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, Model: "m"}, nil, nil)
	if _, err := client.GenerateFromPrompt(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
