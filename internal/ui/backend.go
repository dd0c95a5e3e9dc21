package ui

import (
	"context"

	"github.com/wwwzy/LifeAgent/internal/assistant"
)

// 本地对话保留的历史轮数上限，避免提示词无限膨胀。
const maxHistoryTurns = 20

// AssistantBackend 直接驱动进程内的助手流水线，带滚动会话历史。
// 仅供 lifeagent chat 命令使用，不做并发保护。
type AssistantBackend struct {
	Asst   *assistant.Assistant
	UserID string

	history []assistant.ChatTurn
}

func (b *AssistantBackend) Send(ctx context.Context, message string) (*assistant.Outcome, error) {
	ctx = assistant.WithUserID(ctx, b.UserID)
	out, err := b.Asst.Run(ctx, assistant.Request{
		Message: message,
		History: b.history,
	})
	if err != nil {
		return nil, err
	}

	b.history = append(b.history,
		assistant.ChatTurn{Role: "user", Content: message},
		assistant.ChatTurn{Role: "assistant", Content: OutcomeText(out)},
	)
	if len(b.history) > maxHistoryTurns {
		b.history = b.history[len(b.history)-maxHistoryTurns:]
	}
	return out, nil
}
