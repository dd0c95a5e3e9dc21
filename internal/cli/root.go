package cli

import (
	"fmt"
	"os"

	"github.com/wwwzy/LifeAgent/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd 是没有子命令时调用的基础命令
var rootCmd = &cobra.Command{
	Use:   "lifeagent",
	Short: "LifeAgent 是一个个人生活管理 AI 助手",
	Long: `LifeAgent 用自然语言管理任务、目标、习惯、笔记、账目和学习计划。
它通过一个路由代理把请求分派给各领域子代理，由子代理调用工具落库。`,
}

// Execute 将所有子命令添加到根命令并适当设置标志。
// 这由 main.main() 调用。它只需要对 rootCmd 调用一次。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件（默认按 ./config.yaml、$HOME/.lifeagent/config.yaml 搜索）")
}

// initConfig 读取配置文件和环境变量（如果已设置）。
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
}
