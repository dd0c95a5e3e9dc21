// Package assistant 实现两段式的助手流水线：
// 路由代理先做一次模型调用，要么直接执行工具、要么给出委派意图；
// 随后按意图串行运行各个子代理，每个子代理只能使用自己职责内的
// 工具子集；最后把所有步骤收敛成一个响应。
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/google/uuid"

	"github.com/wwwzy/LifeAgent/internal/storage"
)

// ChatModelFactory 构造一次模型调用所用的 ChatModel。
// jsonMode 表示本次调用希望模型输出 JSON（路由阶段用）。
type ChatModelFactory func(ctx context.Context, jsonMode bool) (model.ToolCallingChatModel, error)

// Assistant 助手流水线的入口。
type Assistant struct {
	store   *storage.Storage
	backend *Backend
	factory ChatModelFactory
	agents  []AgentDef
	tools   []tool.InvokableTool
}

// Option 配置 Assistant。
type Option func(*Assistant)

// WithChatModelFactory 替换模型构造逻辑，测试注入假模型用。
func WithChatModelFactory(f ChatModelFactory) Option {
	return func(a *Assistant) {
		a.factory = f
	}
}

// New 创建助手。backend 为 nil 表示没有配置模型后端，
// Run 会直接返回 ErrNoBackend 而不会发起任何模型调用。
func New(store *storage.Storage, backend *Backend, opts ...Option) *Assistant {
	a := &Assistant{
		store:   store,
		backend: backend,
		agents:  agentDefs(),
		tools:   Catalog(store),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.factory == nil && backend != nil {
		a.factory = backend.NewChatModel
	}
	return a
}

// Ready 是否配置了可用的模型后端。
func (a *Assistant) Ready() bool {
	return a.factory != nil
}

// Run 执行一次完整请求。context 中必须带用户身份（WithUserID）。
func (a *Assistant) Run(ctx context.Context, req Request) (*Outcome, error) {
	if a.factory == nil {
		return nil, ErrNoBackend
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, ErrAccessDenied
	}
	if TraceIDFrom(ctx) == "" {
		ctx = WithTraceID(ctx, uuid.New().String())
	}

	contextBlock := buildContextBlock(ctx, a.store, userID, req.PageContext)
	exec := newExecutor()

	intent, err := a.runRouter(ctx, req, contextBlock, exec)
	if err != nil {
		return nil, err
	}

	// 路由已经执行了工具且明确无需委派时跳过委派循环；
	// 既没有工具步骤也没有委派对象时强制走一遍 summary。
	if exec.toolStepCount() == 0 || len(intent.Agents) > 0 {
		if len(intent.Agents) == 0 {
			intent.Agents = []string{DefaultAgentID}
		}
		a.runDelegation(ctx, req, intent, contextBlock, exec)
	}

	return shapeOutcome(exec.steps)
}

func (a *Assistant) newChatModel(ctx context.Context, jsonMode bool) (model.ToolCallingChatModel, error) {
	return a.factory(ctx, jsonMode)
}

func (a *Assistant) agentByID(id string) (AgentDef, bool) {
	for _, def := range a.agents {
		if def.ID == id {
			return def, true
		}
	}
	return AgentDef{}, false
}

func (a *Assistant) localBackend() bool {
	return a.backend != nil && a.backend.Local()
}

// callContext 给单次模型调用加超时。
func (a *Assistant) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := 60 * time.Second
	if a.backend != nil && a.backend.Timeout > 0 {
		timeout = a.backend.Timeout
	}
	return context.WithTimeout(ctx, timeout)
}
