package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Guidantas28/blog-generator/internal/config"
)

func TestParseJSONResponsePlain(t *testing.T) {
	result := ParseJSONResponse(`{"key": "value", "num": 42}`)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
	if result["num"] != float64(42) {
		t.Errorf("expected num=42, got %v", result["num"])
	}
}

func TestParseJSONResponseWithCodeFence(t *testing.T) {
	text := "```json\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseWithPlainFence(t *testing.T) {
	text := "```\n{\"key\": \"value\"}\n```"
	result := ParseJSONResponse(text)
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseInvalid(t *testing.T) {
	result := ParseJSONResponse("not json at all")
	if result != nil {
		t.Error("expected nil for invalid JSON")
	}
}

func TestParseJSONResponseEmpty(t *testing.T) {
	result := ParseJSONResponse("")
	if result != nil {
		t.Error("expected nil for empty string")
	}
}

func TestParseJSONResponseWhitespace(t *testing.T) {
	result := ParseJSONResponse("  \n  {\"key\": \"value\"}  \n  ")
	if result == nil {
		t.Fatal("expected non-nil result")
	}
	if result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result["key"])
	}
}

func TestParseJSONResponseUnclosedFence(t *testing.T) {
	result := ParseJSONResponse("```json\n{\"key\": \"value\"}")
	if result == nil || result["key"] != "value" {
		t.Errorf("expected key='value', got %v", result)
	}
}

func TestParseJSONResponseArrayIsNotObject(t *testing.T) {
	if ParseJSONResponse(`["a", "b"]`) != nil {
		t.Error("expected nil for a top-level array")
	}
}

func TestStringListShapes(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"array", `["seo", " marketing ", ""]`, []string{"seo", "marketing"}},
		{"keyed", `{"keywords": ["a", "b"]}`, []string{"a", "b"}},
		{"any array", `{"items": ["x"], "count": 1}`, []string{"x"}},
		{"mixed types", `{"keywords": ["a", 3, null]}`, []string{"a"}},
		{"no array", `{"keywords": "a, b"}`, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StringList(ParseJSONValue(tc.text), "keywords")
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("index %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"trends\":[]}"}}]}`))
	}))
	defer srv.Close()

	p := &OpenAIProvider{Model: "gpt-4o-mini", APIKey: "sk-test", BaseURL: srv.URL, client: srv.Client()}
	out, err := p.Generate(context.Background(), "Return JSON with trends", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"trends":[]}` {
		t.Errorf("unexpected output %q", out)
	}
	if _, ok := gotBody["response_format"]; !ok {
		t.Error("expected JSON mode for a prompt asking for JSON")
	}
	if gotBody["max_tokens"] != float64(100) {
		t.Errorf("expected max_tokens 100, got %v", gotBody["max_tokens"])
	}
}

func TestOpenAIGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &OpenAIProvider{Model: "m", APIKey: "k", BaseURL: srv.URL, client: srv.Client()}
	_, err := p.Generate(context.Background(), "hi", 10)
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected 429 error, got %v", err)
	}
}

func TestOpenAIGenerateWithoutKey(t *testing.T) {
	p := &OpenAIProvider{Model: "m"}
	if p.IsConfigured() {
		t.Error("expected unconfigured provider")
	}
	if _, err := p.Generate(context.Background(), "hi", 10); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOllamaGenerateAndIsConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"qwen2.5:7b"}]}`))
		case "/api/chat":
			w.Write([]byte(`{"message":{"content":"hello"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider("qwen2.5:7b", srv.URL+"/")
	if !p.IsConfigured() {
		t.Fatal("expected ollama to be configured")
	}
	out, err := p.Generate(context.Background(), "say hello", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hello" {
		t.Errorf("expected hello, got %q", out)
	}

	missing := NewOllamaProvider("llama3", srv.URL)
	if missing.IsConfigured() {
		t.Error("expected missing model to be unconfigured")
	}
}

func TestCreateProviderFallsBackToOpenAI(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-x")
	t.Setenv("TEST_ANTHROPIC_KEY", "")

	p := CreateProvider(config.LLM{
		Provider:        "anthropic",
		AnthropicKeyEnv: "TEST_ANTHROPIC_KEY",
		OpenAIModel:     "gpt-4o-mini",
		APIKeyEnv:       "TEST_OPENAI_KEY",
	}, nil)
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("expected OpenAI fallback, got %T", p)
	}
}

func TestCreateProviderAnthropic(t *testing.T) {
	t.Setenv("TEST_ANTHROPIC_KEY", "sk-ant")
	p := CreateProvider(config.LLM{Provider: "Anthropic", AnthropicKeyEnv: "TEST_ANTHROPIC_KEY"}, nil)
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("expected anthropic provider, got %T", p)
	}
}

func TestCreateProviderNone(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	if p := CreateProvider(config.LLM{Provider: "openai", APIKeyEnv: "TEST_OPENAI_KEY"}, nil); p != nil {
		t.Errorf("expected nil provider, got %T", p)
	}
}
