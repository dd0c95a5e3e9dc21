package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wwwzy/LifeAgent/internal/assistant"
)

// ConsoleChatUI 逐行读写的对话模式，适合管道和不支持 TUI 的终端。
type ConsoleChatUI struct {
	In  io.Reader
	Out io.Writer
}

func (u *ConsoleChatUI) Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error {
	in := u.In
	if in == nil {
		return fmt.Errorf("console ui: In is nil")
	}
	out := u.Out
	if out == nil {
		return fmt.Errorf("console ui: Out is nil")
	}

	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "进入 LifeAgent 对话模式。输入 exit/quit 退出。")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "已退出。")
			return nil
		default:
		}

		fmt.Fprint(out, "你: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(out, "已退出。")
				return nil
			}
			return fmt.Errorf("读取输入失败: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, "已退出。")
			return nil
		}

		outcome, err := backend.Send(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "出错了: %v\n", err)
			continue
		}

		if opts.ShowSteps {
			printSteps(out, outcome.Steps)
		}
		fmt.Fprintf(out, "助手: %s\n", OutcomeText(outcome))
		if outcome.ToolResult != nil && outcome.ToolResult.Action == assistant.ActionNavigate {
			fmt.Fprintf(out, "（网页端会跳转到 %s）\n", outcome.ToolResult.Path)
		}
	}
}

func printSteps(out io.Writer, steps []assistant.AgentStep) {
	for _, st := range steps {
		switch {
		case st.Err != "":
			fmt.Fprintf(out, "  [%s] %s 失败: %s\n", st.Agent, st.Action, st.Err)
		case st.Result != nil:
			fmt.Fprintf(out, "  [%s] %s: %s\n", st.Agent, st.Action, st.Result.Result)
		}
	}
}
