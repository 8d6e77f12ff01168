package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notebooklm-chat-be/pkg/llm"
)

func geminiServer(t *testing.T, reply string, capture *geminiRequest) (*httptest.Server, *http.Header) {
	t.Helper()
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(capture)
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: &geminiContent{Parts: []geminiPart{{Text: reply}}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &headers
}

func TestChatMapsRolesAndInstruction(t *testing.T) {
	var got geminiRequest
	srv, headers := geminiServer(t, "reply text", &got)

	p := NewProvider("key-123", "", srv.URL)
	reply, err := p.Chat(context.Background(), []llm.Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "earlier answer"},
		{Role: "user", Content: "follow-up"},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if reply != "reply text" {
		t.Errorf("reply = %q", reply)
	}

	if headers.Get("x-goog-api-key") != "key-123" {
		t.Errorf("api key header = %q", headers.Get("x-goog-api-key"))
	}

	if len(got.Contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(got.Contents))
	}
	if got.Contents[1].Role != "model" {
		t.Errorf("assistant role should map to model, got %q", got.Contents[1].Role)
	}
	if got.Contents[0].Role != "user" || got.Contents[2].Role != "user" {
		t.Errorf("user roles should pass through: %+v", got.Contents)
	}

	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != SystemInstruction {
		t.Error("default system instruction missing from payload")
	}
}

func TestChatOptionOverrides(t *testing.T) {
	var got geminiRequest
	srv, _ := geminiServer(t, "ok", &got)

	p := NewProvider("key", "gemini-2.5-flash", srv.URL)
	_, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "user", Content: "hi"}},
		llm.WithSystemInstruction("Be terse."),
	)
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "Be terse." {
		t.Errorf("system instruction override not applied: %+v", got.SystemInstruction)
	}
}

func TestChatNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer srv.Close()

	p := NewProvider("key", "", srv.URL)
	if _, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error for empty candidates")
	}
}

func TestChatUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer srv.Close()

	p := NewProvider("key", "", srv.URL)
	if _, err := p.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}}); err == nil {
		t.Error("expected error for 429 response")
	}
}
