package assistant

import "strings"

// shapeOutcome 把步骤序列收敛成最终响应，优先级依次为：
// 跳转 > 第一个成功的工具步骤 > 拼接的聊天文本。
// 什么都没有时返回 ErrNoUsableOutput。
func shapeOutcome(steps []AgentStep) (*Outcome, error) {
	// 跳转短路：只要有任何成功的 navigate，就直接让前端跳页。
	for _, st := range steps {
		if st.Err == "" && st.Result != nil && st.Result.Action == ActionNavigate {
			res := *st.Result
			return &Outcome{Steps: steps, ToolResult: &res}, nil
		}
	}

	// 第一个成功的变更步骤作为结构化结果；若后面有 summary 代理
	// 的聊天输出，用它替换展示文案（最后一条生效）。
	for i, st := range steps {
		if st.Err != "" || st.Result == nil || st.Action == stepActionChat || st.Action == stepActionSystem {
			continue
		}
		res := *st.Result
		for _, later := range steps[i+1:] {
			if later.Agent == DefaultAgentID && later.Action == stepActionChat && strings.TrimSpace(later.Text) != "" {
				res.Result = strings.TrimSpace(later.Text)
			}
		}
		return &Outcome{Steps: steps, ToolResult: &res}, nil
	}

	// 没有成功的工具步骤：拼接所有聊天文本作为纯文本回复。
	var parts []string
	for _, st := range steps {
		if st.Action == stepActionChat && strings.TrimSpace(st.Text) != "" {
			parts = append(parts, strings.TrimSpace(st.Text))
		}
	}
	if len(parts) > 0 {
		return &Outcome{Steps: steps, ChatText: strings.Join(parts, "\n\n")}, nil
	}
	return nil, ErrNoUsableOutput
}
