package assistant

import (
	"context"
)

type userIDKey struct{}
type traceIDKey struct{}

// WithUserID 将鉴权得到的用户 ID 注入 context。
// 工具执行器只从 context 取用户，保证每次变更都落在发起者自己的行上。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom 从 context 获取用户 ID；未注入时返回空串。
func UserIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTraceID 将链路 ID 注入 context，用于串联一次请求内的审计记录。
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFrom 从 context 获取链路 ID。
func TraceIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey{}).(string); ok {
		return v
	}
	return ""
}
