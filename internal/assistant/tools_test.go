package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/wwwzy/LifeAgent/internal/storage"
)

func mustResult(t *testing.T, out string) ToolResult {
	t.Helper()
	var res ToolResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("tool output is not valid JSON: %v\n%s", err, out)
	}
	return res
}

func TestCreateTaskToolValidation(t *testing.T) {
	s := openAssistantStorage(t)
	tl := &CreateTaskTool{store: s}
	ctx := userCtx("u1")

	if _, err := tl.InvokableRun(ctx, `{"title":"  "}`); !errors.Is(err, ErrValidation) {
		t.Errorf("blank title: err = %v, want ErrValidation", err)
	}
	if _, err := tl.InvokableRun(ctx, `{"title":"x","priority":"urgent"}`); !errors.Is(err, ErrValidation) {
		t.Errorf("bad priority: err = %v, want ErrValidation", err)
	}
	if _, err := tl.InvokableRun(ctx, `{"title":"x","due_date":"tomorrow"}`); !errors.Is(err, ErrValidation) {
		t.Errorf("bad date: err = %v, want ErrValidation", err)
	}
	if _, err := tl.InvokableRun(context.Background(), `{"title":"x"}`); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("no user: err = %v, want ErrAccessDenied", err)
	}
}

func TestCreateTaskToolDefaults(t *testing.T) {
	s := openAssistantStorage(t)
	tl := &CreateTaskTool{store: s}

	out, err := tl.InvokableRun(userCtx("u1"), `{"title":"Buy milk"}`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	res := mustResult(t, out)
	if !strings.Contains(res.Result, "Buy milk") || res.Action != ActionRefresh {
		t.Errorf("unexpected result: %+v", res)
	}

	tasks, err := s.ListTasks(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Priority != "Medium" || tasks[0].Status != storage.TaskStatusTodo {
		t.Fatalf("unexpected task: %+v", tasks)
	}
}

func TestEditTaskToolStringIDAndOwnership(t *testing.T) {
	s := openAssistantStorage(t)
	ctx := context.Background()
	task := storage.Task{UserID: "u1", Title: "old"}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tl := &EditTaskTool{store: s}

	// 模型把数字 ID 写成字符串也要能解析。
	args := `{"id": "` + itoa(task.ID) + `", "title": "new"}`
	if _, err := tl.InvokableRun(userCtx("u1"), args); err != nil {
		t.Fatalf("edit with string id: %v", err)
	}
	got, err := s.GetTask(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "new" {
		t.Errorf("title = %q, want %q", got.Title, "new")
	}

	// 别人的任务改不动。
	if _, err := tl.InvokableRun(userCtx("u2"), args); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Errorf("foreign edit: err = %v, want ErrNotFoundOrForbidden", err)
	}
}

func TestDeleteTaskToolOwnership(t *testing.T) {
	s := openAssistantStorage(t)
	ctx := context.Background()
	task := storage.Task{UserID: "u1", Title: "private"}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tl := &DeleteTaskTool{store: s}
	args := `{"id": ` + itoa(task.ID) + `}`

	// 别人的任务删不掉，也不能报成功。
	if _, err := tl.InvokableRun(userCtx("u2"), args); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Errorf("foreign delete: err = %v, want ErrNotFoundOrForbidden", err)
	}
	if _, err := s.GetTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("task should survive a foreign delete: %v", err)
	}

	out, err := tl.InvokableRun(userCtx("u1"), args)
	if err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if res := mustResult(t, out); res.Action != ActionRefresh {
		t.Errorf("action = %q, want %q", res.Action, ActionRefresh)
	}
	if _, err := tl.InvokableRun(userCtx("u1"), args); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Errorf("repeat delete: err = %v, want ErrNotFoundOrForbidden", err)
	}
}

func TestMarkCompleteToolBulk(t *testing.T) {
	s := openAssistantStorage(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		if err := s.CreateTask(ctx, &storage.Task{UserID: "u1", Title: title}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	tl := &MarkCompleteTool{store: s}

	out, err := tl.InvokableRun(userCtx("u1"), `{"bulk": true}`)
	if err != nil {
		t.Fatalf("bulk complete: %v", err)
	}
	if res := mustResult(t, out); !strings.Contains(res.Result, "3") {
		t.Errorf("result should report the count: %+v", res)
	}

	n, err := s.CountTasks(ctx, "u1", storage.TaskStatusDone)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("done count = %d, want 3", n)
	}

	// 没有 id 也没有 bulk 标记时拒绝。
	if _, err := tl.InvokableRun(userCtx("u1"), `{}`); !errors.Is(err, ErrValidation) {
		t.Errorf("missing id: err = %v, want ErrValidation", err)
	}
}

func TestLogHabitCompletionToolChecksOwnership(t *testing.T) {
	s := openAssistantStorage(t)
	ctx := context.Background()
	habit := storage.Habit{UserID: "u1", Name: "run"}
	if err := s.CreateHabit(ctx, &habit); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tl := &LogHabitCompletionTool{store: s}

	args := `{"habit_id": ` + itoa(habit.ID) + `, "date": "2026-08-29"}`
	if _, err := tl.InvokableRun(userCtx("u2"), args); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("foreign habit: err = %v, want ErrAccessDenied", err)
	}

	out, err := tl.InvokableRun(userCtx("u1"), args)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if res := mustResult(t, out); !strings.Contains(res.Result, "2026-08-29") {
		t.Errorf("result should mention the date: %+v", res)
	}
}

func TestCreateTransactionToolValidation(t *testing.T) {
	s := openAssistantStorage(t)
	tl := &CreateTransactionTool{store: s}
	ctx := userCtx("u1")

	if _, err := tl.InvokableRun(ctx, `{"description":"x","amount":-5,"type":"expense"}`); !errors.Is(err, ErrValidation) {
		t.Errorf("negative amount: err = %v, want ErrValidation", err)
	}
	if _, err := tl.InvokableRun(ctx, `{"description":"x","amount":5,"type":"transfer"}`); !errors.Is(err, ErrValidation) {
		t.Errorf("bad type: err = %v, want ErrValidation", err)
	}
	out, err := tl.InvokableRun(ctx, `{"description":"coffee","amount":4.5,"type":"expense","category":"food"}`)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res := mustResult(t, out); !strings.Contains(res.Result, "coffee") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestNavigateToPageTool(t *testing.T) {
	tl := &NavigateToPageTool{}
	ctx := userCtx("u1")

	out, err := tl.InvokableRun(ctx, `{"page":"tasks"}`)
	if err != nil {
		t.Fatalf("by keyword: %v", err)
	}
	res := mustResult(t, out)
	if res.Action != ActionNavigate || res.Path != "/dashboard/tasks" || res.Name != "Tasks" {
		t.Fatalf("unexpected result: %+v", res)
	}

	out, err = tl.InvokableRun(ctx, `{"path":"/dashboard/habits"}`)
	if err != nil {
		t.Fatalf("by path: %v", err)
	}
	if res := mustResult(t, out); res.Name != "Habits" {
		t.Errorf("unexpected result: %+v", res)
	}

	if _, err := tl.InvokableRun(ctx, `{"page":"mars"}`); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown page: err = %v, want ErrValidation", err)
	}
}

// 变更工具套了审计包装后，每次调用都会留下可查询的审计记录。
func TestAuditedToolRecordsCalls(t *testing.T) {
	s := openAssistantStorage(t)
	audited := NewAuditedTool(&CreateTaskTool{store: s}, s)
	ctx := WithTraceID(userCtx("u1"), "trace-1")

	if _, err := audited.InvokableRun(ctx, `{"title":"Buy milk"}`); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := audited.InvokableRun(ctx, `{"title":""}`); err == nil {
		t.Fatal("expected validation error")
	}

	records, err := s.QueryAuditRecords(context.Background(), storage.AuditQuery{TraceID: "trace-1"})
	if err != nil {
		t.Fatalf("query audit: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 audit records, got %d", len(records))
	}
	statuses := map[string]int{}
	for _, rec := range records {
		statuses[rec.Status]++
		if rec.Action != "create_task" || rec.UserID != "u1" {
			t.Errorf("unexpected record: %+v", rec)
		}
	}
	if statuses["success"] != 1 || statuses["failed"] != 1 {
		t.Errorf("unexpected statuses: %v", statuses)
	}
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
