package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// CreateGoalTool 创建目标
type CreateGoalTool struct {
	store *storage.Storage
}

func (t *CreateGoalTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_goal",
		Desc: "Create a new long-term goal the user wants to track.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Desc:     "Short title of the goal",
				Type:     schema.String,
				Required: true,
			},
			"description": {
				Desc:     "Optional longer description",
				Type:     schema.String,
				Required: false,
			},
			"category": {
				Desc:     "Optional category such as health or career",
				Type:     schema.String,
				Required: false,
			},
			"target_date": {
				Desc:     "Target date in YYYY-MM-DD format",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateGoalTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
		TargetDate  string `json:"target_date"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}

	goal := &storage.Goal{
		UserID:      userID,
		Title:       strings.TrimSpace(args.Title),
		Description: args.Description,
		Category:    args.Category,
	}
	if args.TargetDate != "" {
		target, err := parseDate(args.TargetDate)
		if err != nil {
			return "", err
		}
		goal.TargetDate = &target
	}
	if err := t.store.CreateGoal(ctx, goal); err != nil {
		return "", mapStoreErr(err, "goal")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Goal %q created", goal.Title),
		Action: ActionRefresh,
	})
}

// UpdateGoalProgressTool 更新目标进度
type UpdateGoalProgressTool struct {
	store *storage.Storage
}

func (t *UpdateGoalProgressTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "update_goal_progress",
		Desc: "Set the completion percentage of a goal. Reaching 100 marks the goal as completed.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"id": {
				Desc:     "ID of the goal",
				Type:     schema.Integer,
				Required: true,
			},
			"progress": {
				Desc:     "Progress percentage between 0 and 100",
				Type:     schema.Integer,
				Required: true,
			},
		}),
	}, nil
}

func (t *UpdateGoalProgressTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		ID       flexID `json:"id"`
		Progress int    `json:"progress"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if args.ID == 0 {
		return "", fmt.Errorf("%w: id is required", ErrValidation)
	}

	if err := t.store.UpdateGoalProgress(ctx, userID, uint64(args.ID), args.Progress); err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("goal %d", args.ID))
	}
	goal, err := t.store.GetGoal(ctx, userID, uint64(args.ID))
	if err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("goal %d", args.ID))
	}
	result := fmt.Sprintf("Goal %q progress set to %d%%", goal.Title, goal.Progress)
	if goal.Progress >= 100 {
		result = fmt.Sprintf("Goal %q completed", goal.Title)
	}
	return marshalResult(ToolResult{Result: result, Action: ActionRefresh})
}

// CreateHabitTool 创建习惯
type CreateHabitTool struct {
	store *storage.Storage
}

func (t *CreateHabitTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_habit",
		Desc: "Create a recurring habit the user wants to build.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"name": {
				Desc:     "Name of the habit",
				Type:     schema.String,
				Required: true,
			},
			"frequency": {
				Desc:     "How often: daily or weekly (default daily)",
				Type:     schema.String,
				Required: false,
			},
			"category": {
				Desc:     "Optional category such as fitness or mindfulness",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateHabitTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Name      string `json:"name"`
		Frequency string `json:"frequency"`
		Category  string `json:"category"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Name) == "" {
		return "", fmt.Errorf("%w: name is required", ErrValidation)
	}
	frequency := strings.ToLower(strings.TrimSpace(args.Frequency))
	switch frequency {
	case "", storage.HabitFrequencyDaily, storage.HabitFrequencyWeekly:
	default:
		return "", fmt.Errorf("%w: frequency must be daily or weekly", ErrValidation)
	}

	habit := &storage.Habit{
		UserID:    userID,
		Name:      strings.TrimSpace(args.Name),
		Frequency: frequency,
		Category:  args.Category,
	}
	if err := t.store.CreateHabit(ctx, habit); err != nil {
		return "", mapStoreErr(err, "habit")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Habit %q created", habit.Name),
		Action: ActionRefresh,
	})
}

// LogHabitCompletionTool 打卡，同一天重复打卡只保留最后一次
type LogHabitCompletionTool struct {
	store *storage.Storage
}

func (t *LogHabitCompletionTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "log_habit_completion",
		Desc: "Record whether a habit was completed on a given day. Logging the same day twice overwrites the earlier entry.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"habit_id": {
				Desc:     "ID of the habit",
				Type:     schema.Integer,
				Required: true,
			},
			"date": {
				Desc:     "Date in YYYY-MM-DD format (default today)",
				Type:     schema.String,
				Required: false,
			},
			"completed": {
				Desc:     "Whether the habit was completed (default true)",
				Type:     schema.Boolean,
				Required: false,
			},
		}),
	}, nil
}

func (t *LogHabitCompletionTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		HabitID   flexID `json:"habit_id"`
		Date      string `json:"date"`
		Completed *bool  `json:"completed"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if args.HabitID == 0 {
		return "", fmt.Errorf("%w: habit_id is required", ErrValidation)
	}

	// 归属校验放在上层：先确认习惯属于当前用户，再写日志。
	// 依赖实体的归属校验失败按拒绝访问处理，不按目标缺失处理。
	habit, err := t.store.GetHabit(ctx, userID, uint64(args.HabitID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: habit %d", ErrAccessDenied, args.HabitID)
		}
		return "", fmt.Errorf("store: %w", err)
	}

	date := time.Now().UTC().Format(dateLayout)
	if args.Date != "" {
		parsed, err := parseDate(args.Date)
		if err != nil {
			return "", err
		}
		date = parsed.Format(dateLayout)
	}
	completed := true
	if args.Completed != nil {
		completed = *args.Completed
	}

	log := &storage.HabitLog{
		UserID:    userID,
		HabitID:   habit.ID,
		Date:      date,
		Completed: completed,
	}
	if err := t.store.UpsertHabitLog(ctx, log); err != nil {
		return "", mapStoreErr(err, fmt.Sprintf("habit %d", args.HabitID))
	}
	verb := "completed"
	if !completed {
		verb = "skipped"
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Habit %q logged as %s for %s", habit.Name, verb, date),
		Action: ActionRefresh,
	})
}

// CreateNoteTool 创建笔记
type CreateNoteTool struct {
	store *storage.Storage
}

func (t *CreateNoteTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_note",
		Desc: "Save a note for the user.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Desc:     "Title of the note",
				Type:     schema.String,
				Required: true,
			},
			"content": {
				Desc:     "Body of the note",
				Type:     schema.String,
				Required: false,
			},
			"category": {
				Desc:     "Optional category for organizing notes",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateNoteTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}

	note := &storage.Note{
		UserID:   userID,
		Title:    strings.TrimSpace(args.Title),
		Content:  args.Content,
		Category: args.Category,
	}
	if err := t.store.CreateNote(ctx, note); err != nil {
		return "", mapStoreErr(err, "note")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Note %q saved", note.Title),
		Action: ActionRefresh,
	})
}

// CreateTransactionTool 记账
type CreateTransactionTool struct {
	store *storage.Storage
}

func (t *CreateTransactionTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_transaction",
		Desc: "Record an income or expense transaction.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"description": {
				Desc:     "What the transaction was for",
				Type:     schema.String,
				Required: true,
			},
			"amount": {
				Desc:     "Amount as a positive number",
				Type:     schema.Number,
				Required: true,
			},
			"type": {
				Desc:     "Either income or expense",
				Type:     schema.String,
				Required: true,
			},
			"category": {
				Desc:     "Optional category such as groceries or salary",
				Type:     schema.String,
				Required: false,
			},
			"date": {
				Desc:     "Date in YYYY-MM-DD format (default today)",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateTransactionTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Type        string  `json:"type"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Description) == "" {
		return "", fmt.Errorf("%w: description is required", ErrValidation)
	}
	if args.Amount <= 0 {
		return "", fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	txnType := strings.ToLower(strings.TrimSpace(args.Type))
	if txnType != storage.TransactionTypeIncome && txnType != storage.TransactionTypeExpense {
		return "", fmt.Errorf("%w: type must be income or expense", ErrValidation)
	}

	txn := &storage.Transaction{
		UserID:      userID,
		Description: strings.TrimSpace(args.Description),
		Amount:      args.Amount,
		Type:        txnType,
		Category:    args.Category,
	}
	if args.Date != "" {
		date, err := parseDate(args.Date)
		if err != nil {
			return "", err
		}
		txn.Date = date
	}
	if err := t.store.CreateTransaction(ctx, txn); err != nil {
		return "", mapStoreErr(err, "transaction")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Recorded %s of %.2f for %q", txnType, args.Amount, txn.Description),
		Action: ActionRefresh,
	})
}

// CreateLearningPathTool 创建学习路线
type CreateLearningPathTool struct {
	store *storage.Storage
}

func (t *CreateLearningPathTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: "create_learning_path",
		Desc: "Create a learning path for a topic the user wants to study.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"title": {
				Desc:     "Title of the learning path",
				Type:     schema.String,
				Required: true,
			},
			"category": {
				Desc:     "The subject area being learned",
				Type:     schema.String,
				Required: false,
			},
			"description": {
				Desc:     "Optional longer description",
				Type:     schema.String,
				Required: false,
			},
		}),
	}, nil
}

func (t *CreateLearningPathTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	var args struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if err := parseArgs(argumentsInJSON, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.Title) == "" {
		return "", fmt.Errorf("%w: title is required", ErrValidation)
	}

	path := &storage.LearningPath{
		UserID:      userID,
		Title:       strings.TrimSpace(args.Title),
		Category:    args.Category,
		Description: args.Description,
	}
	if err := t.store.CreateLearningPath(ctx, path); err != nil {
		return "", mapStoreErr(err, "learning path")
	}
	return marshalResult(ToolResult{
		Result: fmt.Sprintf("Learning path %q created", path.Title),
		Action: ActionRefresh,
	})
}
