package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

const dateLayout = "2006-01-02"

// requireUser 取出 context 中的用户身份；没有身份的调用一律拒绝。
func requireUser(ctx context.Context) (string, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return "", ErrAccessDenied
	}
	return userID, nil
}

// parseArgs 解析模型生成的参数 JSON。
func parseArgs(argumentsInJSON string, out any) error {
	if err := json.Unmarshal([]byte(argumentsInJSON), out); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// flexID 兼容模型把数字 ID 写成字符串的情况。
type flexID uint64

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = flexID(v)
	return nil
}

// parseDate 解析 YYYY-MM-DD 或 RFC3339 的日期参数。
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, value)
}

// mapStoreErr 把存储层错误映射到执行器的错误分类。
func mapStoreErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFoundOrForbidden, what)
	}
	return fmt.Errorf("store: %w", err)
}

// marshalResult 将工具结果序列化为返回给模型与前端的 JSON。
func marshalResult(res ToolResult) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

func normalizePriority(p string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "":
		return "", nil
	case "low":
		return "Low", nil
	case "medium":
		return "Medium", nil
	case "high":
		return "High", nil
	}
	return "", fmt.Errorf("%w: priority must be Low, Medium or High", ErrValidation)
}

func normalizeStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "todo", "to do":
		return storage.TaskStatusTodo, nil
	case "in progress", "in_progress", "doing":
		return storage.TaskStatusInProgress, nil
	case "done", "completed", "complete":
		return storage.TaskStatusDone, nil
	}
	return "", fmt.Errorf("%w: status must be Todo, In Progress or Done", ErrValidation)
}

// CreateTaskTool 创建任务
type CreateTaskTool struct {
	store *storage.Storage
}

func (t *CreateTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_task",
		Desc: "Create a new task for the user. Use this when the user wants to add a task, todo or reminder.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Desc:     "Short title of the task",
				Type:     schema.String,
				Required: true,
			},
			"description": {
				Desc:     "Optional longer description",
				Type:     schema.String,
				Required: false,
			},
			"priority": {
				Desc:     "Priority: Low, Medium or High (default Medium)",
				Type:     schema.String,
				Required: false,
			},
			"status": {
				Desc:     "Status: Todo, In Progress or Done (default Todo)",
				Type:     schema.String,
				Required: false,
			},
			"due_date": {
				Desc:     "Due date in YYYY-MM-DD format",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		Status      string `json:"status"`
		DueDate     string `json:"due_date"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	priority, err := normalizePriority(args.Priority)
	if err != nil {
		return "", err
	}
	status, err := normalizeStatus(args.Status)
	if err != nil {
		return "", err
	}

	task := &storage.Task{
		UserID:      userID,
		Title:       strings.TrimSpace(args.Title),
		Description: args.Description,
		Priority:    priority,
		Status:      status,
	}
	if args.DueDate != "" {
		due, err := parseDate(args.DueDate)
		if err != nil {
			return "", err
		}
		task.DueDate = &due
	}
	if err := t.store.CreateTask(ctx, task); err != nil {
		return "", mapStoreErr(err, "task")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Task %q created", task.Title),
		Action: ActionRefresh,
	})
}

// EditTaskTool 修改任务
type EditTaskTool struct {
	store *storage.Storage
}

func (t *EditTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "edit_task",
		Desc: "Update fields of an existing task. Only the fields provided are changed.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"id": {
				Desc:     "ID of the task to update",
				Type:     schema.Integer,
				Required: true,
			},
			"title": {
				Desc:     "New title",
				Type:     schema.String,
				Required: false,
			},
			"description": {
				Desc:     "New description",
				Type:     schema.String,
				Required: false,
			},
			"priority": {
				Desc:     "New priority: Low, Medium or High",
				Type:     schema.String,
				Required: false,
			},
			"status": {
				Desc:     "New status: Todo, In Progress or Done",
				Type:     schema.String,
				Required: false,
			},
			"due_date": {
				Desc:     "New due date in YYYY-MM-DD format",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *EditTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		ID          flexID  `json:"id"`
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Priority    string  `json:"priority"`
		Status      string  `json:"status"`
		DueDate     string  `json:"due_date"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if args.ID == 0 {
		return "", fmt.Errorf("%w: id is required", ErrValidation)
	}

	var upd storage.TaskUpdate
	if args.Title != nil {
		title := strings.TrimSpace(*args.Title)
		if title == "" {
			return "", fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		upd.Title = &title
	}
	if args.Description != nil {
		upd.Description = args.Description
	}
	if args.Priority != "" {
		priority, err := normalizePriority(args.Priority)
		if err != nil {
			return "", err
		}
		upd.Priority = &priority
	}
	if args.Status != "" {
		status, err := normalizeStatus(args.Status)
		if err != nil {
			return "", err
		}
		upd.Status = &status
	}
	if args.DueDate != "" {
		due, err := parseDate(args.DueDate)
		if err != nil {
			return "", err
		}
		upd.DueDate = &due
	}
	if upd == (storage.TaskUpdate{}) {
		return "", fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	if err := t.store.UpdateTask(ctx, userID, uint64(args.ID), upd); err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("task %d", args.ID))
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Task %d updated", args.ID),
		Action: ActionRefresh,
	})
}

// DeleteTaskTool 删除任务
type DeleteTaskTool struct {
	store *storage.Storage
}

func (t *DeleteTaskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "delete_task",
		Desc: "Delete a task permanently.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"id": {
				Desc:     "ID of the task to delete",
				Type:     schema.Integer,
				Required: true,
			},
		}),
	}, nil
}

func (t *DeleteTaskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		ID flexID `json:"id"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if args.ID == 0 {
		return "", fmt.Errorf("%w: id is required", ErrValidation)
	}
	if err := t.store.DeleteTask(ctx, userID, uint64(args.ID)); err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("task %d", args.ID))
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Task %d deleted", args.ID),
		Action: ActionRefresh,
	})
}

// MarkCompleteTool 完成任务，支持单条和批量
type MarkCompleteTool struct {
	store *storage.Storage
}

func (t *MarkCompleteTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "mark_complete",
		Desc: "Mark a task as complete. Set bulk to true to complete every open task at once.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"id": {
				Desc:     "ID of the task to complete (omit when bulk is true)",
				Type:     schema.Integer,
				Required: false,
			},
			"bulk": {
				Desc:     "Complete all open tasks instead of a single one",
				Type:     schema.Boolean,
				Required: false,
			},
		}),
	}, nil
}

func (t *MarkCompleteTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		ID   flexID `json:"id"`
		Bulk bool   `json:"bulk"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}

	if args.Bulk {
		n, err := t.store.CompleteAllTasks(ctx, userID)
		if err != nil {
			return "", mapStoreErr(err, "tasks")
		}
		return marshalResult(ToolResult{
			Result: fmt.Sprintf("Marked %d tasks as complete", n),
			Action: ActionRefresh,
		})
	}

	if args.ID == 0 {
		return "", fmt.Errorf("%w: id is required unless bulk is true", ErrValidation)
	}
	if err := t.store.CompleteTask(ctx, userID, uint64(args.ID)); err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("task %d", args.ID))
	}
	task, err := t.store.GetTask(ctx, userID, uint64(args.ID))
	if err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("task %d", args.ID))
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Task %q marked as complete", task.Title),
		Action: ActionRefresh,
	})
}

// NavigateToPageTool 页面跳转，唯一不落库的工具
type NavigateToPageTool struct{}

// 可跳转的页面。keyword 既做参数枚举也做展示名的来源。
var navigablePages = []struct {
	Keyword string
	Path    string
	Name    string
}{
	{"dashboard", "/dashboard", "Dashboard"},
	{"tasks", "/dashboard/tasks", "Tasks"},
	{"goals", "/dashboard/goals", "Goals"},
	{"habits", "/dashboard/habits", "Habits"},
	{"notes", "/dashboard/notes", "Notes"},
	{"finance", "/dashboard/finance", "Finance"},
	{"learning", "/dashboard/learning", "Learning Paths"},
	{"settings", "/dashboard/settings", "Settings"},
}

func (t *NavigateToPageTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	keywords := make([]string, 0, len(navigablePages))
	for _, p := range navigablePages {
		keywords = append(keywords, p.Keyword)
	}
	return &schema.ToolInfo{
		Name: "navigate_to_page",
		Desc: "Navigate the user to a page of the app. Use when the user asks to open or go to a section.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"page": {
				Desc:     "Page keyword, one of: " + strings.Join(keywords, ", "),
				Type:     schema.String,
				Required: false,
			},
			"path": {
				Desc:     "Explicit path such as /dashboard/tasks (alternative to page)",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *NavigateToPageTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	if _, err := requireUser(ctx); err != nil {
		return "", err
	}
	var args struct {
		Page string `json:"page"`
		Path string `json:"path"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}

	for _, p := range navigablePages {
		if strings.EqualFold(args.Page, p.Keyword) || (args.Path != "" && args.Path == p.Path) {
			return marshalResult(ToolResult{
				Result: fmt.Sprintf("Navigating to %s", p.Name),
				Action: ActionNavigate,
				Path:   p.Path,
				Name:   p.Name,
			})
		}
	}
	return "", fmt.Errorf("%w: unknown page %q", ErrValidation, args.Page+args.Path)
}
