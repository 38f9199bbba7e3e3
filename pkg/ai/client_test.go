package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"angeldesk-go/internal/config"
	"angeldesk-go/pkg/log"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func TestExtractReply_KnownShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"reply 字段", `{"reply":"你好"}`, "你好"},
		{"answer 字段", `{"answer":"market looks solid"}`, "market looks solid"},
		{"output 字段", `{"output":"out"}`, "out"},
		{"summary 字段", `{"summary":"该公司做 SaaS"}`, "该公司做 SaaS"},
		{"choices 形态", `{"choices":[{"message":{"content":"from choices"}}]}`, "from choices"},
		{"顶层数组", `[{"reply":"first"},{"reply":"second"}]`, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractReply(json.RawMessage(tt.raw))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractReply_NoUsableField(t *testing.T) {
	for _, raw := range []string{`{}`, `{"status":"ok"}`, `[]`, ``} {
		_, err := extractReply(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrNoReplyField, "raw=%s", raw)
	}
}

func TestExtractReply_Malformed(t *testing.T) {
	_, err := extractReply(json.RawMessage(`{"reply":`))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoReplyField)
}

func TestComplete_CallsChatPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hooks/chat", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(map[string]string{"reply": "Hello world"})
	}))
	defer srv.Close()

	client := NewClient(config.AIConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		ChatPath: "/hooks/chat",
	})

	got, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "pitch?"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello world", got)
}

func TestSummarize_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.AIConfig{BaseURL: srv.URL, SummaryPath: "/hooks/summary"})
	_, err := client.Summarize(context.Background(), "deck.pdf", "some text")
	assert.Error(t, err)
}
