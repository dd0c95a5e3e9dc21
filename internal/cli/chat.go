package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/storage"
	"github.com/wwwzy/LifeAgent/internal/tui"
	"github.com/wwwzy/LifeAgent/internal/ui"
)

var (
	chatUI        string
	chatUserID    string
	chatShowSteps bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "进入交互式对话模式",
	Long: `在本地终端直接与助手对话，不经过 HTTP 层。
助手会按需调用内置工具写入数据库，数据记在 --user 指定的用户名下。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		backend, err := assistant.ResolveBackend(cfg.Model)
		if err != nil {
			return fmt.Errorf("解析模型后端失败: %w", err)
		}

		asst := assistant.New(store, backend)
		chatBackend := &ui.AssistantBackend{Asst: asst, UserID: chatUserID}

		var uiImpl ui.ChatUI
		switch chatUI {
		case "console", "":
			uiImpl = &ui.ConsoleChatUI{In: os.Stdin, Out: os.Stdout}
		case "tui":
			uiImpl = &tui.ChatUI{}
		default:
			return fmt.Errorf("未知 ui 类型: %s (支持: console, tui)", chatUI)
		}

		return uiImpl.Run(ctx, chatBackend, ui.ChatOptions{
			ShowSteps: chatShowSteps,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatUI, "ui", "console", "交互界面类型: console/tui")
	chatCmd.Flags().StringVar(&chatUserID, "user", "local", "数据归属的用户 ID")
	chatCmd.Flags().BoolVar(&chatShowSteps, "show-steps", false, "展示流水线的中间步骤")
}
