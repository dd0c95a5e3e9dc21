package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wwwzy/LifeAgent/internal/storage"
)

// buildContextBlock 汇总用户数据概览和前端页面上下文，注入到
// 各代理的提示词里。任何一项查询失败都只是少一行信息，
// 不会让整个请求失败。
func buildContextBlock(ctx context.Context, store *storage.Storage, userID string, pageContext map[string]any) string {
	var lines []string

	if page := pageFromContext(pageContext); page != "" {
		lines = append(lines, fmt.Sprintf("- 用户当前所在页面: %s", page))
	}

	if store != nil && userID != "" {
		if n, err := store.CountTasks(ctx, userID, storage.TaskStatusTodo); err == nil {
			lines = append(lines, fmt.Sprintf("- 待办任务: %d 条", n))
		}
		if n, err := store.CountGoals(ctx, userID); err == nil {
			lines = append(lines, fmt.Sprintf("- 进行中的目标: %d 个", n))
		}
		if n, err := store.CountHabits(ctx, userID); err == nil {
			today := time.Now().UTC().Format(dateLayout)
			done, err := store.CountHabitLogsOn(ctx, userID, today)
			if err != nil {
				done = 0
			}
			lines = append(lines, fmt.Sprintf("- 习惯: %d 个，今日已打卡 %d 个", n, done))
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return "用户数据概览:\n" + strings.Join(lines, "\n")
}

// pageFromContext 从前端传来的 pageContext 里取当前页面。
func pageFromContext(pageContext map[string]any) string {
	for _, key := range []string{"page", "path", "currentPage"} {
		if v, ok := pageContext[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
