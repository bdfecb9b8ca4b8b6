package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gratefultolord/astro_bot/internal/prompt"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestCompleteSendsSystemAndUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		if req.Model != "gpt-4" || req.Temperature != 0.7 {
			t.Errorf("unexpected model/temperature: %s %v", req.Model, req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %#v", req.Messages)
		} else if req.Messages[0].Content != "sys" || req.Messages[1].Content != "usr" {
			t.Errorf("unexpected contents: %#v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"the stars agree"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4",
		WithBaseURL(server.URL+"/v1"),
		WithHTTPClient(server.Client()),
	)

	got, err := client.Complete(context.Background(), prompt.Prompt{System: "sys", User: "usr"}, prompt.TemperatureReading)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if got != "the stars agree" {
		t.Fatalf("unexpected completion: %q", got)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("k", "gpt-4", WithBaseURL(server.URL+"/v1"))

	_, err := client.Complete(context.Background(), prompt.Prompt{System: "s", User: "u"}, 1)
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient("k", "gpt-4", WithBaseURL(server.URL+"/v1"))

	if _, err := client.Complete(context.Background(), prompt.Prompt{}, 1); err == nil {
		t.Fatal("expected error from failing API")
	}
}
