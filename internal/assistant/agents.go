package assistant

import "strings"

// DefaultAgentID 兜底代理：意图解析失败或请求纯属聊天时使用。
const DefaultAgentID = "summary"

// AgentDef 一个子代理：提示词加它被允许使用的工具子集。
type AgentDef struct {
	ID     string
	Desc   string
	Prompt string
	Tools  []string
}

// agentDefs 按定义顺序返回所有子代理。顺序即文档顺序，
// 路由提示词里的代理清单据此生成。
func agentDefs() []AgentDef {
	return []AgentDef{
		{
			ID:   "task",
			Desc: "任务管理：创建、修改、删除、完成任务",
			Prompt: `你是任务管理代理。当前系统时间: {time}
根据用户的请求创建、修改、删除或完成任务。
能用工具完成的就调用工具；信息不足时不要臆造 ID，改为向用户说明缺少什么。`,
			Tools: []string{"create_task", "edit_task", "delete_task", "mark_complete"},
		},
		{
			ID:   "goal",
			Desc: "目标管理：创建目标、更新进度",
			Prompt: `你是目标管理代理。当前系统时间: {time}
根据用户的请求创建长期目标或更新目标进度（0-100）。
能用工具完成的就调用工具。`,
			Tools: []string{"create_goal", "update_goal_progress"},
		},
		{
			ID:   "habit",
			Desc: "习惯养成：创建习惯、记录打卡",
			Prompt: `你是习惯养成代理。当前系统时间: {time}
根据用户的请求创建习惯或记录某天的打卡情况。
日期一律使用 YYYY-MM-DD 格式；用户说"今天"就用当前日期。`,
			Tools: []string{"create_habit", "log_habit_completion"},
		},
		{
			ID:   "note",
			Desc: "笔记：保存用户想记下的内容",
			Prompt: `你是笔记代理。当前系统时间: {time}
把用户想记下的内容整理成标题加正文保存。标题要短，正文保留用户原意。`,
			Tools: []string{"create_note"},
		},
		{
			ID:   "finance",
			Desc: "记账：记录收入与支出",
			Prompt: `你是记账代理。当前系统时间: {time}
根据用户的描述记录一笔收入（income）或支出（expense）。
金额必须是正数，花钱就是 expense，进账就是 income。`,
			Tools: []string{"create_transaction"},
		},
		{
			ID:   "learning",
			Desc: "学习路线：为想学的主题建立学习路径",
			Prompt: `你是学习规划代理。当前系统时间: {time}
用户想学某个主题时，为其创建一条学习路线。`,
			Tools: []string{"create_learning_path"},
		},
		{
			ID:   "navigation",
			Desc: "页面跳转：把用户带到应用的某个页面",
			Prompt: `你是导航代理。当前系统时间: {time}
用户想打开应用的某个页面时，调用跳转工具。`,
			Tools: []string{"navigate_to_page"},
		},
		{
			ID:   "summary",
			Desc: "总结与聊天：汇总已执行的操作，或直接回答用户",
			Prompt: `你是总结代理。当前系统时间: {time}
如果此前已经执行了一些步骤，用一两句自然的话向用户汇报结果。
如果没有任何步骤，直接回答用户的问题。不要调用工具，只输出文本。`,
			Tools: nil,
		},
	}
}

// agentList 渲染路由提示词用的代理清单。
func agentList(defs []AgentDef) string {
	var sb strings.Builder
	for i, def := range defs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(def.ID)
		sb.WriteString(": ")
		sb.WriteString(def.Desc)
	}
	return sb.String()
}
