package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// runRouter 路由阶段：单次模型调用，既可能直接发出工具调用，
// 也必须产出委派意图。返回的 error 为后端级失败，整个请求终止。
func (a *Assistant) runRouter(ctx context.Context, req Request, contextBlock string, exec *executor) (Intent, error) {
	cm, err := a.newChatModel(ctx, true)
	if err != nil {
		return Intent{}, newBackendError("init", a.localBackend(), err)
	}

	infos, err := ToolInfos(ctx, a.tools)
	if err != nil {
		return Intent{}, err
	}
	tcm, err := cm.WithTools(infos)
	if err != nil {
		return Intent{}, fmt.Errorf("failed to bind tools: %w", err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(renderRouterPrompt(agentList(a.agents), contextBlock)),
	}
	messages = append(messages, historyMessages(req.History)...)
	messages = append(messages, schema.UserMessage(req.Message))

	tctx, cancel := a.callContext(ctx)
	defer cancel()
	reply, err := tcm.Generate(tctx, messages)
	if err != nil {
		return Intent{}, newBackendError("generate", a.localBackend(), err)
	}

	if len(reply.ToolCalls) > 0 {
		byName, err := toolsByName(ctx, a.tools)
		if err != nil {
			return Intent{}, err
		}
		exec.runToolCalls(ctx, routerAgentID, reply.ToolCalls, byName)
	}

	intent, ok := parseIntent(reply.Content)
	if !ok {
		fmt.Printf("[WARN] Failed to parse router intent, falling back to %s: %q\n", DefaultAgentID, reply.Content)
		intent = Intent{Agents: []string{DefaultAgentID}}
	}
	return intent, nil
}

// routerAgentID 路由阶段直接执行的工具步骤记在这个名下。
const routerAgentID = "router"

// parseIntent 解析路由输出。空内容视为"没有要委派的代理"：
// 模型发完工具调用后经常不再输出文本，这不算解析失败。
func parseIntent(content string) (Intent, bool) {
	content = stripCodeFence(content)
	if content == "" {
		return Intent{}, true
	}
	var intent Intent
	if err := json.Unmarshal([]byte(content), &intent); err != nil {
		// 模型偶尔把 JSON 混在解释文字里，找最后一个对象再试一次。
		if start := strings.LastIndex(content, "{"); start >= 0 {
			if err := json.Unmarshal([]byte(content[start:]), &intent); err == nil {
				return intent, true
			}
		}
		return Intent{}, false
	}
	return intent, true
}

// stripCodeFence 去掉包裹 JSON 的 markdown 代码栅栏（一对）。
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// 第一行可能是语言标记（```json）。
		s = s[i+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// historyMessages 把会话历史转换成模型消息，未知角色按用户处理。
func historyMessages(history []ChatTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		switch strings.ToLower(turn.Role) {
		case "assistant", "ai":
			out = append(out, schema.AssistantMessage(turn.Content, nil))
		default:
			out = append(out, schema.UserMessage(turn.Content))
		}
	}
	return out
}
