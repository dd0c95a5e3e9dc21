package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	openaiopt "github.com/cloudwego/eino-ext/libs/acl/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/wwwzy/LifeAgent/internal/config"
)

// Backend 描述一个 OpenAI 兼容的模型后端。
// 本地后端（Ollama、LM Studio 等）优先；没有本地配置时退回托管后端。
type Backend struct {
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
	// JSONMode 托管后端支持 response_format 的结构化输出提示。
	// 本地后端对该参数支持参差不齐，不下发。
	JSONMode bool
	Timeout  time.Duration
}

// Local 是否为本地后端。HTTP 层据此把连接失败映射为 503。
func (b *Backend) Local() bool {
	return b.Provider == "local"
}

// ResolveBackend 根据配置选择模型后端。两个后端都没配置时返回
// ErrNoBackend，调用方应拒绝请求而不是尝试调用模型。
func ResolveBackend(cfg config.ModelConfig) (*Backend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if cfg.LocalBaseURL != "" {
		return &Backend{
			Provider: "local",
			BaseURL:  cfg.LocalBaseURL,
			Model:    cfg.LocalModel,
			Timeout:  timeout,
		}, nil
	}
	if cfg.GroqAPIKey != "" {
		return &Backend{
			Provider: "groq",
			BaseURL:  cfg.GroqBaseURL,
			APIKey:   cfg.GroqAPIKey,
			Model:    cfg.GroqModel,
			JSONMode: true,
			Timeout:  timeout,
		}, nil
	}
	return nil, ErrNoBackend
}

// NewChatModel 构造 eino 的 ChatModel。jsonMode 只在后端声明支持时
// 才真正开启，用于路由阶段要求模型输出 JSON。
func (b *Backend) NewChatModel(ctx context.Context, jsonMode bool) (model.ToolCallingChatModel, error) {
	cmConfig := &openai.ChatModelConfig{
		APIKey:  b.APIKey,
		BaseURL: b.BaseURL,
		Model:   b.Model,
		Timeout: b.Timeout,
	}
	if jsonMode && b.JSONMode {
		cmConfig.ResponseFormat = &openaiopt.ChatCompletionResponseFormat{
			Type: openaiopt.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	cm, err := openai.NewChatModel(ctx, cmConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", b.Provider, err)
	}
	return cm, nil
}
