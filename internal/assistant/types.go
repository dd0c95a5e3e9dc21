package assistant

// 流水线的公共数据类型。

// 工具结果的 action 取值。
const (
	// ActionRefresh 表示前端应刷新当前页面数据。
	ActionRefresh = "refresh"
	// ActionNavigate 表示前端应跳转到 Path 指向的页面。
	ActionNavigate = "navigate"
)

// 步骤的保留 action 取值，区别于具体工具名。
const (
	stepActionChat   = "chat"
	stepActionSystem = "system"
)

// ToolResult 单次工具调用的结构化结果。
type ToolResult struct {
	Result string `json:"result"`
	Action string `json:"action,omitempty"`
	Path   string `json:"path,omitempty"`
	Name   string `json:"name,omitempty"`
}

// AgentStep 流水线中的一个步骤：某个代理执行了一次工具调用、
// 产出了一段对话文本，或者失败了。失败不会中断整条流水线，
// 只会以带 Err 的步骤记录下来。
type AgentStep struct {
	Agent  string      `json:"agent"`
	Action string      `json:"action"`
	Result *ToolResult `json:"result,omitempty"`
	Text   string      `json:"text,omitempty"`
	Err    string      `json:"error,omitempty"`
}

// ChatTurn 会话历史中的一轮。
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 一次助手请求。
type Request struct {
	Message     string         `json:"message"`
	PageContext map[string]any `json:"pageContext,omitempty"`
	History     []ChatTurn     `json:"conversationHistory,omitempty"`
}

// Intent 路由阶段解析出的委派意图。
type Intent struct {
	Agents []string `json:"agents"`
}

// Outcome 整次请求的最终产物。ToolResult 与 ChatText 二选一：
// 前者对应结构化的 tool_result 响应，后者对应纯文本回复。
type Outcome struct {
	Steps      []AgentStep
	ToolResult *ToolResult
	ChatText   string
}
