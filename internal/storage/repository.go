package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 表示按 (id, user_id) 过滤后没有命中任何行。
//
// 注意：零行更新/删除不能静默当成成功——行不存在和行不属于当前用户
// 在对外表现上是同一种情况（见 assistant 包的错误映射）。
var ErrNotFound = errors.New("record not found or not owned")

// 任务默认值：仅标题创建时，优先级与状态按此兜底。
const (
	DefaultTaskPriority = "Medium"
	DefaultTaskStatus   = "Todo"

	TaskStatusTodo       = "Todo"
	TaskStatusInProgress = "In Progress"
	TaskStatusDone       = "Done"
)

// 习惯频率与账目类型的合法取值。
const (
	HabitFrequencyDaily  = "daily"
	HabitFrequencyWeekly = "weekly"

	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// ---------------------------------------------------------------------------
// Task
// ---------------------------------------------------------------------------

func (s *Storage) CreateTask(ctx context.Context, task *Task) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if task == nil {
		return errors.New("task is nil")
	}
	if task.UserID == "" {
		return errors.New("task user id is required")
	}
	if task.Priority == "" {
		task.Priority = DefaultTaskPriority
	}
	if task.Status == "" {
		task.Status = DefaultTaskStatus
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// TaskUpdate 描述一次部分更新；nil 字段不参与更新。
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *string
	Status      *string
	DueDate     *time.Time
}

// UpdateTask 更新 (id, userID) 命中的那一行。
// 零行命中返回 ErrNotFound，而不是静默成功。
func (s *Storage) UpdateTask(ctx context.Context, userID string, id uint64, upd TaskUpdate) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}

	values := map[string]any{}
	if upd.Title != nil {
		values["title"] = *upd.Title
	}
	if upd.Description != nil {
		values["description"] = *upd.Description
	}
	if upd.Priority != nil {
		values["priority"] = *upd.Priority
	}
	if upd.Status != nil {
		values["status"] = *upd.Status
		if *upd.Status == TaskStatusDone {
			values["completed_at"] = time.Now().UTC()
		}
	}
	if upd.DueDate != nil {
		values["due_date"] = *upd.DueDate
	}
	if len(values) == 0 {
		return errors.New("task update is empty")
	}

	res := s.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask 删除 (id, userID) 命中的行。零行命中返回 ErrNotFound，
// 调用侧无法区分"不存在"和"不属于该用户"，由上层统一映射。
func (s *Storage) DeleteTask(ctx context.Context, userID string, id uint64) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteTask 单条标记完成。零行命中返回 ErrNotFound。
func (s *Storage) CompleteTask(ctx context.Context, userID string, id uint64) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"status":       TaskStatusDone,
			"completed_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("complete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteAllTasks 把该用户所有 Todo 任务一次性标记为 Done。
// 在单个事务内完成，调用方不可见中间状态；返回实际迁移的行数。
func (s *Storage) CompleteAllTasks(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Task{}).
			Where("user_id = ? AND status = ?", userID, TaskStatusTodo).
			Updates(map[string]any{
				"status":       TaskStatusDone,
				"completed_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("complete all tasks: %w", err)
	}
	return affected, nil
}

func (s *Storage) GetTask(ctx context.Context, userID string, id uint64) (*Task, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var task Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// CountTasks 统计该用户某状态的任务数；status 为空表示不过滤状态。
func (s *Storage) CountTasks(ctx context.Context, userID string, status string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	db := s.db.WithContext(ctx).Model(&Task{}).Where("user_id = ?", userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var n int64
	if err := db.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

func (s *Storage) ListTasks(ctx context.Context, userID string, limit int) ([]Task, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	limit = normalizeLimit(limit)
	var out []Task
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Goal
// ---------------------------------------------------------------------------

func (s *Storage) CreateGoal(ctx context.Context, goal *Goal) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if goal == nil {
		return errors.New("goal is nil")
	}
	if goal.UserID == "" {
		return errors.New("goal user id is required")
	}
	goal.Progress = clampProgress(goal.Progress)
	if err := s.db.WithContext(ctx).Create(goal).Error; err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// UpdateGoalProgress 更新目标进度（钳制到 0~100），到 100 时记录完成时间。
// 零行命中返回 ErrNotFound。
func (s *Storage) UpdateGoalProgress(ctx context.Context, userID string, id uint64, progress int) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	progress = clampProgress(progress)
	values := map[string]any{"progress": progress}
	if progress >= 100 {
		values["completed_at"] = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).Model(&Goal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update goal progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Storage) GetGoal(ctx context.Context, userID string, id uint64) (*Goal, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var goal Goal
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

func (s *Storage) CountGoals(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&Goal{}).
		Where("user_id = ? AND (completed_at IS NULL)", userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count goals: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Habit / HabitLog
// ---------------------------------------------------------------------------

func (s *Storage) CreateHabit(ctx context.Context, habit *Habit) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if habit == nil {
		return errors.New("habit is nil")
	}
	if habit.UserID == "" {
		return errors.New("habit user id is required")
	}
	if habit.Frequency == "" {
		habit.Frequency = "daily"
	}
	if err := s.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}
	return nil
}

func (s *Storage) GetHabit(ctx context.Context, userID string, id uint64) (*Habit, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var habit Habit
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// UpsertHabitLog 以 (habit_id, date) 为键写入打卡记录：
// 同一天重复调用是覆盖 completed 值，不会产生第二行。
// 调用方必须先用 GetHabit 校验 HabitID 归属（所有权检查不在这里做）。
func (s *Storage) UpsertHabitLog(ctx context.Context, log *HabitLog) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if log == nil {
		return errors.New("habit log is nil")
	}
	if log.HabitID == 0 || log.UserID == "" || log.Date == "" {
		return errors.New("habit log requires habit_id, user_id and date")
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(log).Error
	if err != nil {
		return fmt.Errorf("upsert habit log: %w", err)
	}
	return nil
}

func (s *Storage) ListHabitLogs(ctx context.Context, userID string, habitID uint64) ([]HabitLog, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var out []HabitLog
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND habit_id = ?", userID, habitID).
		Order("date ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	return out, nil
}

// CountHabitLogsOn 统计某天已打卡（completed=true）的习惯数，供上下文构建使用。
func (s *Storage) CountHabitLogsOn(ctx context.Context, userID string, date string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&HabitLog{}).
		Where("user_id = ? AND date = ? AND completed = ?", userID, date, true).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count habit logs: %w", err)
	}
	return n, nil
}

func (s *Storage) CountHabits(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&Habit{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Note / Transaction / LearningPath
// ---------------------------------------------------------------------------

func (s *Storage) CreateNote(ctx context.Context, note *Note) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if note == nil {
		return errors.New("note is nil")
	}
	if note.UserID == "" {
		return errors.New("note user id is required")
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *Storage) CreateTransaction(ctx context.Context, txn *Transaction) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if txn == nil {
		return errors.New("transaction is nil")
	}
	if txn.UserID == "" {
		return errors.New("transaction user id is required")
	}
	if txn.Date.IsZero() {
		txn.Date = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Storage) CreateLearningPath(ctx context.Context, path *LearningPath) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if path == nil {
		return errors.New("learning path is nil")
	}
	if path.UserID == "" {
		return errors.New("learning path user id is required")
	}
	path.Progress = clampProgress(path.Progress)
	if err := s.db.WithContext(ctx).Create(path).Error; err != nil {
		return fmt.Errorf("insert learning path: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// 概况统计（storage info 命令）
// ---------------------------------------------------------------------------

// TableCount 为一张表的行数统计。
type TableCount struct {
	Table string
	Count int64
}

func (s *Storage) EntityCounts(ctx context.Context) ([]TableCount, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	models := []struct {
		name  string
		model any
	}{
		{"tasks", &Task{}},
		{"goals", &Goal{}},
		{"habits", &Habit{}},
		{"habit_logs", &HabitLog{}},
		{"notes", &Note{}},
		{"transactions", &Transaction{}},
		{"learning_paths", &LearningPath{}},
		{"api_tokens", &APIToken{}},
		{"audit_records", &AuditRecord{}},
	}
	out := make([]TableCount, 0, len(models))
	for _, m := range models {
		var n int64
		if err := s.db.WithContext(ctx).Model(m.model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", m.name, err)
		}
		out = append(out, TableCount{Table: m.name, Count: n})
	}
	return out, nil
}

const (
	defaultLimit = 200
	maxLimit     = 1000
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
