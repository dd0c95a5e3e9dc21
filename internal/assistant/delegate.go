package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// runDelegation 按意图顺序逐个运行子代理，严格串行：每个代理都
// 能在提示里看到之前所有步骤的结果。单个代理失败只记一条
// system 步骤，循环继续。
func (a *Assistant) runDelegation(ctx context.Context, req Request, intent Intent, contextBlock string, exec *executor) {
	for _, agentID := range intent.Agents {
		def, ok := a.agentByID(agentID)
		if !ok {
			fmt.Printf("[WARN] Unknown agent %q in intent, skipping\n", agentID)
			continue
		}
		a.runAgent(ctx, req, def, contextBlock, exec)
	}
}

// runAgent 运行单个子代理：一次模型调用，产出工具调用或一段文本。
func (a *Assistant) runAgent(ctx context.Context, req Request, def AgentDef, contextBlock string, exec *executor) {
	cm, err := a.newChatModel(ctx, false)
	if err != nil {
		exec.record(AgentStep{
			Agent:  def.ID,
			Action: stepActionSystem,
			Err:    fmt.Sprintf("model init failed: %v", err),
		})
		return
	}

	tools, err := FilterByNames(ctx, a.tools, def.Tools)
	if err != nil {
		exec.record(AgentStep{Agent: def.ID, Action: stepActionSystem, Err: err.Error()})
		return
	}

	generate := cm.Generate
	if len(tools) > 0 {
		infos, err := ToolInfos(ctx, tools)
		if err != nil {
			exec.record(AgentStep{Agent: def.ID, Action: stepActionSystem, Err: err.Error()})
			return
		}
		tcm, err := cm.WithTools(infos)
		if err != nil {
			exec.record(AgentStep{
				Agent:  def.ID,
				Action: stepActionSystem,
				Err:    fmt.Sprintf("failed to bind tools: %v", err),
			})
			return
		}
		generate = tcm.Generate
	}

	userContent := req.Message
	if summary := buildStepSummary(exec.steps); summary != "" {
		userContent = req.Message + "\n\n" + summary
	}
	messages := []*schema.Message{
		schema.SystemMessage(renderAgentPrompt(def.Prompt, contextBlock)),
	}
	messages = append(messages, historyMessages(req.History)...)
	messages = append(messages, schema.UserMessage(userContent))

	tctx, cancel := a.callContext(ctx)
	defer cancel()
	reply, err := generate(tctx, messages)
	if err != nil {
		exec.record(AgentStep{
			Agent:  def.ID,
			Action: stepActionSystem,
			Err:    fmt.Sprintf("model call failed: %v", err),
		})
		return
	}

	if len(reply.ToolCalls) > 0 {
		byName, err := toolsByName(ctx, tools)
		if err != nil {
			exec.record(AgentStep{Agent: def.ID, Action: stepActionSystem, Err: err.Error()})
			return
		}
		exec.runToolCalls(ctx, def.ID, reply.ToolCalls, byName)
		return
	}
	if text := strings.TrimSpace(reply.Content); text != "" {
		exec.record(AgentStep{Agent: def.ID, Action: stepActionChat, Text: text})
	}
}
