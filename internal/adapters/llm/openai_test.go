package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

func TestReply(t *testing.T) {
	var req struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"  I would rally the crew.  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	o := NewOpenAI("sk-test", "", srv.URL+"/v1")
	reply, err := o.Reply(context.Background(), []model.ChatMessage{
		{Role: model.RoleSystem, Content: "rules"},
		{Role: model.RoleAssistant, Content: "prologue"},
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply != "I would rally the crew." {
		t.Fatalf("reply = %q", reply)
	}
	if auth != "Bearer sk-test" || req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[1].Role != "assistant" {
		t.Fatalf("request = %+v auth=%q", req, auth)
	}
}

func TestReplyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	if _, err := NewOpenAI("bad", "", srv.URL+"/v1").Reply(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}
