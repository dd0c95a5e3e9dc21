package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "lifeagent.db")
	s, err := Open(ctx, Config{
		Path:      dbPath,
		EnableWAL: true,
	})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateTaskDefaults(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	task := Task{UserID: "u1", Title: "Buy milk"}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := s.GetTask(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Priority != "Medium" {
		t.Fatalf("expected priority Medium, got %q", got.Priority)
	}
	if got.Status != "Todo" {
		t.Fatalf("expected status Todo, got %q", got.Status)
	}
	if got.DueDate != nil {
		t.Fatalf("expected nil due date, got %v", got.DueDate)
	}
}

func TestUpdateTaskOwnershipIsolation(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	task := Task{UserID: "owner", Title: "private"}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	title := "hijacked"
	err := s.UpdateTask(ctx, "intruder", task.ID, TaskUpdate{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-user update, got %v", err)
	}

	got, err := s.GetTask(ctx, "owner", task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != "private" {
		t.Fatalf("cross-user update mutated the row: title=%q", got.Title)
	}

	// 不存在的 ID 同样报 ErrNotFound，而不是静默成功。
	err = s.UpdateTask(ctx, "owner", task.ID+999, TaskUpdate{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestDeleteTaskZeroRow(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	task := Task{UserID: "u1", Title: "temp"}
	if err := s.CreateTask(ctx, &task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := s.DeleteTask(ctx, "intruder", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-user delete, got %v", err)
	}
	if _, err := s.GetTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("task should survive a foreign delete: %v", err)
	}
	if err := s.DeleteTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := s.DeleteTask(ctx, "u1", task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for already-deleted id, got %v", err)
	}
}

func TestCompleteAllTasksBulk(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	seed := []Task{
		{UserID: "u1", Title: "a", Status: TaskStatusTodo, Priority: "Low"},
		{UserID: "u1", Title: "b", Status: TaskStatusTodo, Priority: "Low"},
		{UserID: "u1", Title: "c", Status: TaskStatusInProgress, Priority: "Low"},
		{UserID: "u1", Title: "d", Status: TaskStatusDone, Priority: "Low"},
		{UserID: "u2", Title: "e", Status: TaskStatusTodo, Priority: "Low"},
	}
	for i := range seed {
		if err := s.CreateTask(ctx, &seed[i]); err != nil {
			t.Fatalf("create task %d: %v", i, err)
		}
	}

	affected, err := s.CompleteAllTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("complete all: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 rows affected, got %d", affected)
	}

	tasks, err := s.ListTasks(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	for _, task := range tasks {
		switch task.Title {
		case "a", "b":
			if task.Status != TaskStatusDone {
				t.Fatalf("task %s not done: %s", task.Title, task.Status)
			}
			if task.CompletedAt == nil {
				t.Fatalf("task %s missing completed_at", task.Title)
			}
		case "c":
			if task.Status != TaskStatusInProgress {
				t.Fatalf("in-progress task was touched: %s", task.Status)
			}
		}
	}

	// 其他用户的 Todo 不受影响。
	n, err := s.CountTasks(ctx, "u2", TaskStatusTodo)
	if err != nil {
		t.Fatalf("count u2 tasks: %v", err)
	}
	if n != 1 {
		t.Fatalf("bulk completion leaked across users, u2 todo=%d", n)
	}
}

func TestHabitLogUpsert(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	habit := Habit{UserID: "u1", Name: "run"}
	if err := s.CreateHabit(ctx, &habit); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if habit.Frequency != "daily" {
		t.Fatalf("expected default frequency daily, got %q", habit.Frequency)
	}

	day := "2026-08-29"
	if err := s.UpsertHabitLog(ctx, &HabitLog{HabitID: habit.ID, UserID: "u1", Date: day, Completed: true}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertHabitLog(ctx, &HabitLog{HabitID: habit.ID, UserID: "u1", Date: day, Completed: false}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	logs, err := s.ListHabitLogs(ctx, "u1", habit.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected exactly 1 log row for the day, got %d", len(logs))
	}
	if logs[0].Completed {
		t.Fatalf("expected second call's value (completed=false) to win")
	}
}

func TestGoalProgressClampAndNotFound(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	goal := Goal{UserID: "u1", Title: "learn go"}
	if err := s.CreateGoal(ctx, &goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	if err := s.UpdateGoalProgress(ctx, "u1", goal.ID, 150); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	got, err := s.GetGoal(ctx, "u1", goal.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got.Progress != 100 {
		t.Fatalf("expected clamped progress 100, got %d", got.Progress)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at at 100%%")
	}

	err = s.UpdateGoalProgress(ctx, "u2", goal.ID, 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-user goal update, got %v", err)
	}
}

func TestTokenLifecycle(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	plaintext, rec, err := s.IssueToken(ctx, "u1", "laptop")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if !ValidTokenFormat(plaintext) {
		t.Fatalf("issued token has invalid format: %q", plaintext)
	}

	userID, err := s.ResolveToken(ctx, plaintext)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}

	if _, err := s.ResolveToken(ctx, "la_not-a-real-token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for bogus token, got %v", err)
	}

	if err := s.RevokeToken(ctx, rec.ID); err != nil {
		t.Fatalf("revoke token: %v", err)
	}
	if _, err := s.ResolveToken(ctx, plaintext); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after revoke, got %v", err)
	}
}

func TestAuditPrune(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-10 * 24 * time.Hour)
	for i := 0; i < 5; i++ {
		rec := AuditRecord{
			TraceID:   "trace",
			UserID:    "u1",
			Action:    "create_task",
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := s.InsertAuditRecord(ctx, &rec); err != nil {
			t.Fatalf("insert audit %d: %v", i, err)
		}
	}

	deleted, err := s.DeleteAuditRecordsKeepLatest(ctx, 2)
	if err != nil {
		t.Fatalf("prune keep-latest: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	n, err := s.CountAuditRecords(ctx)
	if err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 remaining, got %d", n)
	}
}

func TestAuditQueryFilters(t *testing.T) {
	s := openTestStorage(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	seed := []AuditRecord{
		{TraceID: "t1", UserID: "u1", Action: "create_task", Status: "success", CreatedAt: base},
		{TraceID: "t1", UserID: "u1", Action: "delete_task", Status: "failed", CreatedAt: base.Add(time.Minute)},
		{TraceID: "t2", UserID: "u2", Action: "create_task", Status: "success", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range seed {
		if err := s.InsertAuditRecord(ctx, &seed[i]); err != nil {
			t.Fatalf("insert audit %d: %v", i, err)
		}
	}

	got, err := s.QueryAuditRecords(ctx, AuditQuery{UserID: "u1"})
	if err != nil {
		t.Fatalf("query by user: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records for u1, got %d", len(got))
	}

	got, err = s.QueryAuditRecords(ctx, AuditQuery{Action: "create_task", Status: "success"})
	if err != nil {
		t.Fatalf("query by action+status: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 successful create_task records, got %d", len(got))
	}

	// 倒序加 limit：只取最新的一条。
	got, err = s.QueryAuditRecords(ctx, AuditQuery{Desc: true, Limit: 1})
	if err != nil {
		t.Fatalf("query desc limit: %v", err)
	}
	if len(got) != 1 || got[0].TraceID != "t2" {
		t.Fatalf("expected latest record t2, got %+v", got)
	}
}
