package ui

import (
	"context"

	"github.com/wwwzy/LifeAgent/internal/assistant"
)

// ChatBackend 一次对话消息的处理方。
type ChatBackend interface {
	Send(ctx context.Context, message string) (*assistant.Outcome, error)
}

// ChatUI 对话前端：控制台或 TUI。
type ChatUI interface {
	Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error
}

type ChatOptions struct {
	// ShowSteps 在回复之外逐条展示流水线步骤。
	ShowSteps bool
}

// OutcomeText 提取最终回复的展示文本。
func OutcomeText(out *assistant.Outcome) string {
	if out == nil {
		return ""
	}
	if out.ToolResult != nil {
		return out.ToolResult.Result
	}
	return out.ChatText
}
