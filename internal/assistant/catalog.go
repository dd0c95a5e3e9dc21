package assistant

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// Catalog 返回全量工具列表。会变更数据的工具都套上审计包装，
// 页面跳转不落库所以不包。
func Catalog(store *storage.Storage) []tool.InvokableTool {
	audited := func(t tool.InvokableTool) tool.InvokableTool {
		return NewAuditedTool(t, store)
	}
	return []tool.InvokableTool{
		audited(&CreateTaskTool{store: store}),
		audited(&EditTaskTool{store: store}),
		audited(&DeleteTaskTool{store: store}),
		audited(&MarkCompleteTool{store: store}),
		audited(&CreateGoalTool{store: store}),
		audited(&UpdateGoalProgressTool{store: store}),
		audited(&CreateHabitTool{store: store}),
		audited(&LogHabitCompletionTool{store: store}),
		audited(&CreateNoteTool{store: store}),
		audited(&CreateTransactionTool{store: store}),
		audited(&CreateLearningPathTool{store: store}),
		&NavigateToPageTool{},
	}
}

// ToolInfos 收集工具的描述信息，用于绑定到模型。
func ToolInfos(ctx context.Context, tools []tool.InvokableTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// FilterByNames 按名字筛出子集，未知名字直接忽略。
// 每个子代理只拿到自己职责内的工具。
func FilterByNames(ctx context.Context, tools []tool.InvokableTool, names []string) ([]tool.InvokableTool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []tool.InvokableTool
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		if wanted[info.Name] {
			out = append(out, t)
		}
	}
	return out, nil
}

// toolsByName 建立名字到工具的索引，供执行器按 tool call 查找。
func toolsByName(ctx context.Context, tools []tool.InvokableTool) (map[string]tool.InvokableTool, error) {
	byName := make(map[string]tool.InvokableTool, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get tool info: %w", err)
		}
		byName[info.Name] = t
	}
	return byName, nil
}

// isMutatingTool 是否会写数据库。跳转是目前唯一的只读工具。
func isMutatingTool(name string) bool {
	return name != "navigate_to_page"
}
