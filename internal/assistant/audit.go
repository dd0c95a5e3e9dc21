package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

const auditTruncateLimit = 2048

// AuditedTool 工具包装器：执行前写入 running 记录，执行后补上
// 结果或错误。审计失败不阻断工具本身的执行。
type AuditedTool struct {
	impl  tool.InvokableTool
	store *storage.Storage
}

// NewAuditedTool 包装一个会变更数据的工具。store 为 nil 时原样返回。
func NewAuditedTool(t tool.InvokableTool, store *storage.Storage) tool.InvokableTool {
	if store == nil {
		return t
	}
	return &AuditedTool{impl: t, store: store}
}

func (t *AuditedTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.impl.Info(ctx)
}

func (t *AuditedTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	action := "unknown"
	if info, err := t.impl.Info(ctx); err == nil && info != nil {
		action = info.Name
	}

	now := time.Now().UTC()
	record := &storage.AuditRecord{
		TraceID:    TraceIDFrom(ctx),
		UserID:     UserIDFrom(ctx),
		Action:     action,
		ParamsJSON: truncate(argumentsInJSON, auditTruncateLimit),
		Status:     "running",
		StartedAt:  now,
	}
	if err := t.store.InsertAuditRecord(ctx, record); err != nil {
		fmt.Printf("[WARN] Failed to insert audit record: %v\n", err)
	}

	// 模型偶尔会生成残缺的参数 JSON，空串与单个 { 兜底为 {}。
	safeArgs := argumentsInJSON
	if safeArgs == "" || safeArgs == "{" {
		safeArgs = "{}"
	}
	result, runErr := t.impl.InvokableRun(ctx, safeArgs, opts...)

	finishedAt := time.Now().UTC()
	status := "success"
	var errMsg *string
	var resultJSON *string
	if runErr != nil {
		status = "failed"
		e := truncate(runErr.Error(), auditTruncateLimit)
		errMsg = &e
	} else {
		r := truncate(result, auditTruncateLimit)
		resultJSON = &r
	}

	if record.ID != 0 {
		upd := storage.AuditUpdate{
			Status:       &status,
			ResultJSON:   resultJSON,
			ErrorMessage: errMsg,
			FinishedAt:   &finishedAt,
		}
		if err := t.store.UpdateAuditRecord(ctx, record.ID, upd); err != nil {
			fmt.Printf("[WARN] Failed to update audit record: %v\n", err)
		}
	}

	return result, runErr
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
