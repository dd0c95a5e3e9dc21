package assistant

import (
	"strings"
	"time"
)

// RouterPromptTemplate 路由（母）代理的系统提示词。
// 动态变量: {time}, {agents}, {context}
const RouterPromptTemplate = `你是个人生活助理 LifeAgent 的调度中枢。

当前系统时间: {time}

{context}

你的职责有两项:
1. 对于简单、明确的单一操作（例如"创建一个买牛奶的任务"、"打开任务页"），
   直接调用对应的工具完成，不要等待委派。
2. 无论是否调用了工具，最后都必须输出一个 JSON 对象，说明还需要哪些
   子代理继续处理，格式严格为: {"agents": ["<agent_id>", ...]}。
   如果你已经用工具把事情办完，输出 {"agents": []}。

可用的子代理:
{agents}

规则:
- 只输出上述 JSON，不要输出其他解释文字。
- 涉及多个领域的请求，按处理顺序列出多个代理。
- 纯聊天、问答、总结类请求交给 summary 代理。`

// stepSummaryHeader 拼接在子代理用户消息前，携带此前步骤的结果。
const stepSummaryHeader = "此前已执行的步骤:"

// renderRouterPrompt 填充路由提示词的动态变量。
func renderRouterPrompt(agentList, contextBlock string) string {
	if contextBlock == "" {
		contextBlock = "（暂无用户数据概览）"
	}
	return strings.NewReplacer(
		"{time}", time.Now().Format("2006-01-02 15:04:05"),
		"{agents}", agentList,
		"{context}", contextBlock,
	).Replace(RouterPromptTemplate)
}

// renderAgentPrompt 填充子代理提示词的动态变量。
func renderAgentPrompt(prompt, contextBlock string) string {
	out := strings.NewReplacer(
		"{time}", time.Now().Format("2006-01-02 15:04:05"),
	).Replace(prompt)
	if contextBlock != "" {
		out += "\n\n" + contextBlock
	}
	return out
}

// buildStepSummary 将此前步骤序列化成文本，传给后续子代理。
func buildStepSummary(steps []AgentStep) string {
	if len(steps) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(stepSummaryHeader)
	for _, st := range steps {
		sb.WriteString("\n- [")
		sb.WriteString(st.Agent)
		sb.WriteString("] ")
		sb.WriteString(st.Action)
		switch {
		case st.Err != "":
			sb.WriteString(": 失败: ")
			sb.WriteString(st.Err)
		case st.Result != nil:
			sb.WriteString(": ")
			sb.WriteString(st.Result.Result)
		case st.Text != "":
			sb.WriteString(": ")
			sb.WriteString(st.Text)
		}
	}
	return sb.String()
}
