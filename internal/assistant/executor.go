package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// executor 在一次请求内顺序执行模型发出的工具调用。
// 单个调用的失败只产生一条带错误的步骤，不影响后续调用。
type executor struct {
	steps []AgentStep
	// seen 记录已执行的变更调用，同参重复调用直接跳过，
	// 防止模型在多个阶段把同一次变更执行两遍。
	seen map[string]bool
}

func newExecutor() *executor {
	return &executor{seen: make(map[string]bool)}
}

// runToolCalls 以 agentID 的名义执行一批工具调用。byName 限定了
// 该代理可用的工具子集，越界的调用记为错误步骤。
func (e *executor) runToolCalls(ctx context.Context, agentID string, calls []schema.ToolCall, byName map[string]tool.InvokableTool) {
	for _, call := range calls {
		name := call.Function.Name
		args := call.Function.Arguments

		t, ok := byName[name]
		if !ok {
			e.steps = append(e.steps, AgentStep{
				Agent:  agentID,
				Action: name,
				Err:    fmt.Sprintf("unknown tool %q", name),
			})
			continue
		}

		if isMutatingTool(name) {
			key := dedupKey(name, args)
			if e.seen[key] {
				e.steps = append(e.steps, AgentStep{
					Agent:  agentID,
					Action: name,
					Err:    "duplicate tool call skipped",
				})
				continue
			}
			e.seen[key] = true
		}

		out, err := t.InvokableRun(ctx, args)
		if err != nil {
			e.steps = append(e.steps, AgentStep{
				Agent:  agentID,
				Action: name,
				Err:    err.Error(),
			})
			continue
		}
		e.steps = append(e.steps, AgentStep{
			Agent:  agentID,
			Action: name,
			Result: parseToolResult(out),
		})
	}
}

func (e *executor) record(step AgentStep) {
	e.steps = append(e.steps, step)
}

// toolStepCount 统计成功与否在内的工具步骤数（chat/system 除外）。
func (e *executor) toolStepCount() int {
	n := 0
	for _, st := range e.steps {
		if st.Action != stepActionChat && st.Action != stepActionSystem {
			n++
		}
	}
	return n
}

// dedupKey 以工具名加规整后的参数 JSON 作为去重键。
func dedupKey(name, args string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(args)); err != nil {
		return name + "\x00" + strings.TrimSpace(args)
	}
	return name + "\x00" + buf.String()
}

// parseToolResult 解析工具输出。工具约定输出 ToolResult 的 JSON，
// 解析不了就原样当作结果文本。
func parseToolResult(out string) *ToolResult {
	var res ToolResult
	if err := json.Unmarshal([]byte(out), &res); err != nil || res.Result == "" {
		return &ToolResult{Result: out}
	}
	return &res
}
