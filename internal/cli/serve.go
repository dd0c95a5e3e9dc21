package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wwwzy/LifeAgent/internal/assistant"
	"github.com/wwwzy/LifeAgent/internal/server"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// serveCmd 代表 serve 命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 LifeAgent HTTP 服务",
	Long: `启动 HTTP 服务，对外暴露 POST /ai-assistant 端点。
模型后端按配置解析：本地后端优先，其次是托管后端；
两者都没有时服务照常启动，助手端点返回 503。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fmt.Println("正在初始化存储...")
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		backend, err := assistant.ResolveBackend(cfg.Model)
		if err != nil {
			if !errors.Is(err, assistant.ErrNoBackend) {
				return fmt.Errorf("解析模型后端失败: %w", err)
			}
			fmt.Println("[WARN] 未配置模型后端，/ai-assistant 将返回 503")
			backend = nil
		} else {
			fmt.Printf("模型后端: %s (%s)\n", backend.Provider, backend.Model)
		}

		asst := assistant.New(store, backend)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			fmt.Printf("收到信号: %s, 正在关闭...\n", sig)
			cancel()
		}()

		srv := server.New(cfg.Server, store, asst)
		fmt.Printf("LifeAgent 服务已启动，监听 %s。按 Ctrl+C 停止。\n", cfg.Server.Addr)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("服务退出异常: %w", err)
		}
		fmt.Println("关闭完成。")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
