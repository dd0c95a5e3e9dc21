package storage

import "time"

// Task 表示一条待办任务。
//
// 所有实体表都带有 UserID 所有权列，仓库层的每次读写都必须按 UserID 过滤，
// 这是整个系统唯一的授权边界。
type Task struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// UserID 为行所有者；与 Status 组成联合索引，服务于看板/批量完成类查询。
	UserID string `gorm:"size:64;not null;index:idx_tasks_user_status,priority:1"`
	Title  string `gorm:"size:255;not null"`
	// Description 为可选的详细描述。
	Description string `gorm:"type:text"`
	// Priority 取值 Low/Medium/High，写入前由工具层做默认值兜底（Medium）。
	Priority string `gorm:"size:16;not null"`
	// Status 取值 Todo/In Progress/Done。
	Status string `gorm:"size:16;not null;index:idx_tasks_user_status,priority:2"`
	// DueDate 为可选截止时间；nil 表示未设置。
	DueDate *time.Time
	// CompletedAt 在 Status 变为 Done 时写入。
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

// Goal 表示一个长期目标，Progress 以 0~100 百分比记录。
type Goal struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      string `gorm:"size:64;not null;index"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"size:64"`
	// Progress 为完成百分比，仓库层写入时钳制到 [0,100]。
	Progress int `gorm:"not null"`
	// TargetDate 为可选目标日期。
	TargetDate *time.Time
	// CompletedAt 在 Progress 到达 100 时写入。
	CompletedAt *time.Time
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime"`
}

// Habit 表示一个习惯定义；打卡记录见 HabitLog。
type Habit struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID string `gorm:"size:64;not null;index"`
	Name   string `gorm:"size:255;not null"`
	// Frequency 取值 daily/weekly，默认 daily。
	Frequency string    `gorm:"size:16;not null"`
	Category  string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// HabitLog 表示某个习惯在某一天的打卡记录。
//
// (HabitID, Date) 为唯一键：同一天重复打卡是覆盖（upsert）而不是追加，
// 这也让并发的重复调用天然幂等。
type HabitLog struct {
	ID uint64 `gorm:"primaryKey"`
	// HabitID 指向所属 Habit；写入前必须先校验 Habit 归属于同一 UserID。
	HabitID uint64 `gorm:"not null;uniqueIndex:idx_habit_logs_habit_date,priority:1"`
	UserID  string `gorm:"size:64;not null;index"`
	// Date 为打卡日期（YYYY-MM-DD，UTC），作为 upsert 键的一部分。
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_habit_logs_habit_date,priority:2"`
	Completed bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

// Note 表示一条笔记。
type Note struct {
	ID        uint64    `gorm:"primaryKey"`
	UserID    string    `gorm:"size:64;not null;index"`
	Title     string    `gorm:"size:255;not null"`
	Content   string    `gorm:"type:text"`
	Category  string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

// Transaction 表示一笔收支记录。
type Transaction struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID string `gorm:"size:64;not null;index:idx_transactions_user_date,priority:1"`
	// Amount 为金额绝对值，收支方向由 Type 表达。
	Amount float64 `gorm:"not null"`
	// Type 取值 income/expense。
	Type        string `gorm:"size:16;not null;index"`
	Category    string `gorm:"size:64"`
	Description string `gorm:"size:255"`
	// Date 为记账日期（UTC）；与 UserID 组成联合索引，服务于月度统计类查询。
	Date      time.Time `gorm:"not null;index:idx_transactions_user_date,priority:2"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

// LearningPath 表示一条学习路线。
type LearningPath struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      string `gorm:"size:64;not null;index"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"size:64"`
	// Progress 为完成百分比（0~100）。
	Progress  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

// APIToken 表示一个 API 访问令牌。
//
// 明文令牌只在签发时返回一次，数据库里只保存 SHA-256 十六进制哈希；
// HTTP 层用 Authorization: Bearer <token> 携带，查哈希得到 UserID。
type APIToken struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID string `gorm:"size:64;not null;index"`
	// Name 为令牌备注名（例如 "laptop"），便于管理。
	Name string `gorm:"size:128"`
	// TokenHash 为明文令牌的 SHA-256 十六进制表示，全局唯一。
	TokenHash string    `gorm:"size:64;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	// LastUsedAt 在每次成功鉴权后更新（尽力而为，失败不阻断请求）。
	LastUsedAt *time.Time
	// RevokedAt 非空表示令牌已吊销，鉴权时视同不存在。
	RevokedAt *time.Time `gorm:"index"`
}

// AuditRecord 记录一次工具调用及其结果，用于审计、追溯与后续分析。
//
// 一条审计记录对应 AI 助手流水线中的一次数据变更工具执行。
// 复杂入参/输出统一以 JSON 字符串存放，便于快速落地与版本演进。
type AuditRecord struct {
	// ID 为自增主键（内部使用）。
	ID uint64 `gorm:"primaryKey"`
	// TraceID 用于串联一次助手请求内的所有工具调用。
	TraceID string `gorm:"size:64;index"`
	// UserID 为发起调用的用户。
	UserID string `gorm:"size:64;index"`
	// Action 为稳定的工具名（例如 create_task / edit_task）。
	Action string `gorm:"size:128;not null;index"`
	// ParamsJSON 存放工具入参（JSON 字符串）。
	ParamsJSON string `gorm:"type:text"`
	// ResultJSON 存放工具输出（JSON 字符串）。
	ResultJSON string `gorm:"type:text"`
	// Status 表示执行状态（running/success/failed）。
	Status string `gorm:"size:32;not null;index"`
	// ErrorMessage 存放失败时的错误信息。
	ErrorMessage string `gorm:"type:text"`
	// StartedAt/FinishedAt 表示调用起止时间。
	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time `gorm:"index"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime;index"`
}
