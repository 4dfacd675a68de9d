package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testRequest() GenerateRequest {
	return GenerateRequest{Prompt: "write a caption", MaxTokens: 256, Temperature: 0.7}
}

func TestCallAnthropic_WireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("anthropic call must not carry an Authorization header")
		}
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.MaxTokens != 256 || len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("body = %+v", body)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"a caption"}]}`))
	}))
	defer server.Close()

	client := NewClient(nil, Config{AnthropicBaseURL: server.URL})
	text, err := client.CallProvider(context.Background(), ProviderAnthropic, "secret", testRequest())
	if err != nil {
		t.Fatalf("CallProvider() error = %v", err)
	}
	if text != "a caption" {
		t.Errorf("text = %q", text)
	}
}

func TestCallGemini_WireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("key param = %q", r.URL.Query().Get("key"))
		}
		if r.Header.Get("Authorization") != "" || r.Header.Get("x-api-key") != "" {
			t.Error("gemini call authenticates only via the key query parameter")
		}
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				MaxOutputTokens int     `json:"maxOutputTokens"`
				Temperature     float64 `json:"temperature"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Contents) != 1 || body.Contents[0].Parts[0].Text != "write a caption" {
			t.Errorf("body = %+v", body)
		}
		if body.GenerationConfig.MaxOutputTokens != 256 {
			t.Errorf("maxOutputTokens = %d", body.GenerationConfig.MaxOutputTokens)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"a caption"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient(nil, Config{GeminiBaseURL: server.URL})
	text, err := client.CallProvider(context.Background(), ProviderGemini, "secret", testRequest())
	if err != nil {
		t.Fatalf("CallProvider() error = %v", err)
	}
	if text != "a caption" {
		t.Errorf("text = %q", text)
	}
}

func TestCallOpenAI_WireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"a caption"}}]}`))
	}))
	defer server.Close()

	client := NewClient(nil, Config{OpenAIBaseURL: server.URL})
	text, err := client.CallProvider(context.Background(), ProviderOpenAI, "secret", testRequest())
	if err != nil {
		t.Fatalf("CallProvider() error = %v", err)
	}
	if text != "a caption" {
		t.Errorf("text = %q", text)
	}
}

func TestCallProvider_RejectionCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient(nil, Config{AnthropicBaseURL: server.URL})
	_, err := client.CallProvider(context.Background(), ProviderAnthropic, "secret", testRequest())
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T", err)
	}
	if perr.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d", perr.Status)
	}
	if perr.Provider != ProviderAnthropic {
		t.Errorf("Provider = %q", perr.Provider)
	}
}

func TestCallProvider_TimeoutIsNotReissued(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`{"content":[{"text":"a caption"}]}`))
	}))
	defer server.Close()

	client := NewClient(nil, Config{AnthropicBaseURL: server.URL, Timeout: 50 * time.Millisecond})
	_, err := client.CallProvider(context.Background(), ProviderAnthropic, "secret", testRequest())
	if err == nil {
		t.Fatal("timed-out call reported success")
	}
	// The provider may already have processed and billed the timed-out
	// request, so it must surface to the caller instead of being re-sent.
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestExtractors_DefaultToEmptyString(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]byte) string
		data string
	}{
		{"anthropic empty content", extractAnthropic, `{"content":[]}`},
		{"anthropic missing content", extractAnthropic, `{}`},
		{"anthropic not json", extractAnthropic, `<!doctype html>`},
		{"gemini no candidates", extractGemini, `{"candidates":[]}`},
		{"gemini empty parts", extractGemini, `{"candidates":[{"content":{"parts":[]}}]}`},
		{"openai no choices", extractOpenAI, `{"choices":[]}`},
		{"openai missing message", extractOpenAI, `{"choices":[{}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn([]byte(tt.data)); got != "" {
				t.Errorf("got %q, want empty string", got)
			}
		})
	}
}

func TestGenerate_UsesSelectedProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "anthropic-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		w.Write([]byte(`{"content":[{"text":"generated"}]}`))
	}))
	defer server.Close()

	selector := NewSelector(&fakeResolver{configured: map[string]string{"anthropic": "anthropic-key"}})
	client := NewClient(selector, Config{AnthropicBaseURL: server.URL})

	text, err := client.Generate(context.Background(), "ws1", testRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "generated" {
		t.Errorf("text = %q", text)
	}
}
