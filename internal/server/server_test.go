package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/config"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// scriptedModel 按脚本逐次返回固定回复的假模型。
type scriptedModel struct {
	replies []*schema.Message
	calls   int
	err     error
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.replies) {
		return nil, fmt.Errorf("unexpected model call #%d", m.calls+1)
	}
	reply := m.replies[m.calls]
	m.calls++
	return reply, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	reply, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{reply}), nil
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

type testEnv struct {
	store  *storage.Storage
	server *Server
	token  string
}

func newTestEnv(t *testing.T, backend *assistant.Backend, m *scriptedModel) *testEnv {
	t.Helper()
	s, err := storage.Open(context.Background(), storage.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	token, _, err := s.IssueToken(context.Background(), "u1", "test")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	opts := []assistant.Option{}
	if m != nil {
		opts = append(opts, assistant.WithChatModelFactory(
			func(_ context.Context, _ bool) (model.ToolCallingChatModel, error) {
				return m, nil
			},
		))
	}
	asst := assistant.New(s, backend, opts...)
	srv := New(config.ServerConfig{Addr: ":0"}, s, asst)
	return &testEnv{store: s, server: srv, token: token}
}

func (e *testEnv) post(t *testing.T, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai-assistant", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAssistantRequiresToken(t *testing.T) {
	env := newTestEnv(t, nil, &scriptedModel{})

	rec := env.post(t, "", `{"message":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = env.post(t, "la_bogus-token-value-aaaaaaaaaaaaaaaaaaaaaaa", `{"message":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestAssistantRevokedToken(t *testing.T) {
	env := newTestEnv(t, nil, &scriptedModel{})
	ctx := context.Background()

	tokens, err := env.store.ListTokens(ctx)
	if err != nil || len(tokens) != 1 {
		t.Fatalf("list tokens: %v (%d)", err, len(tokens))
	}
	if err := env.store.RevokeToken(ctx, tokens[0].ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	rec := env.post(t, env.token, `{"message":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status = %d, want 401", rec.Code)
	}
}

// 空白消息在任何模型调用之前就被拒绝。
func TestAssistantBlankMessage(t *testing.T) {
	m := &scriptedModel{}
	env := newTestEnv(t, nil, m)

	rec := env.post(t, env.token, `{"message":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Message is required" {
		t.Errorf("error = %q", resp["error"])
	}
	if m.calls != 0 {
		t.Errorf("model should not be called, got %d calls", m.calls)
	}
}

func TestAssistantInvalidBody(t *testing.T) {
	env := newTestEnv(t, nil, &scriptedModel{})
	rec := env.post(t, env.token, `{"message": `)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 两个后端都没配置时返回 503，且不发起模型调用。
func TestAssistantNoBackend(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.post(t, env.token, `{"message":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// 路由直接完成变更时返回结构化 tool_result。
func TestAssistantToolResult(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage(`{"agents": []}`, []schema.ToolCall{{
			ID:   "1",
			Type: "function",
			Function: schema.FunctionCall{
				Name:      "create_task",
				Arguments: `{"title":"Buy milk"}`,
			},
		}}),
	}}
	env := newTestEnv(t, nil, m)

	rec := env.post(t, env.token, `{"message":"Create a task to buy milk"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
	var resp toolResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "tool_result" || !strings.Contains(resp.ResultText, "Buy milk") {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Action != "refresh" {
		t.Errorf("action = %q, want refresh", resp.Action)
	}

	tasks, err := env.store.ListTasks(context.Background(), "u1", 0)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks = %v, err = %v", tasks, err)
	}
}

// 纯聊天回复走 text/plain 流式输出。
func TestAssistantChatStream(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage(`{"agents": ["summary"]}`, nil),
		schema.AssistantMessage("Here is your day at a glance.", nil),
	}}
	env := newTestEnv(t, nil, m)

	rec := env.post(t, env.token, `{"message":"How does my day look?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Body.String() != "Here is your day at a glance." {
		t.Errorf("body = %q", rec.Body.String())
	}
}

// 本地后端连不上是部署问题，503；托管后端失败是网关问题，502。
func TestAssistantBackendErrors(t *testing.T) {
	local := &assistant.Backend{Provider: "local", BaseURL: "http://127.0.0.1:9"}
	env := newTestEnv(t, local, &scriptedModel{err: errors.New("dial tcp 127.0.0.1:9: connection refused")})
	rec := env.post(t, env.token, `{"message":"hi"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("local unreachable: status = %d, want 503", rec.Code)
	}

	hosted := &assistant.Backend{Provider: "groq"}
	env = newTestEnv(t, hosted, &scriptedModel{err: errors.New("unexpected status 500")})
	rec = env.post(t, env.token, `{"message":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("hosted failure: status = %d, want 502", rec.Code)
	}
}

// 模型一个字都没产出时返回 502。
func TestAssistantNoUsableOutput(t *testing.T) {
	m := &scriptedModel{replies: []*schema.Message{
		schema.AssistantMessage(`{"agents": ["summary"]}`, nil),
		schema.AssistantMessage("", nil),
	}}
	env := newTestEnv(t, nil, m)

	rec := env.post(t, env.token, `{"message":"hi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil, &scriptedModel{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
