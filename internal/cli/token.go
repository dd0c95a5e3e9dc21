package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "管理 API 访问令牌",
	Long: `创建、查看和吊销 HTTP 接口使用的 Bearer 令牌。
令牌明文只在创建时显示一次，数据库里只存哈希。`,
}

var tokenCreateName string

var tokenCreateCmd = &cobra.Command{
	Use:   "create <user-id>",
	Short: "为指定用户创建令牌",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		plaintext, rec, err := store.IssueToken(ctx, args[0], tokenCreateName)
		if err != nil {
			return fmt.Errorf("创建令牌失败: %w", err)
		}
		fmt.Printf("Token ID: %d\n", rec.ID)
		fmt.Printf("User: %s\n", rec.UserID)
		fmt.Println("令牌明文只显示这一次，请妥善保存：")
		fmt.Println(plaintext)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出所有令牌",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		tokens, err := store.ListTokens(ctx)
		if err != nil {
			return fmt.Errorf("查询令牌失败: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tUser\tName\tStatus\tLastUsed")
		for _, t := range tokens {
			status := "active"
			if t.RevokedAt != nil {
				status = "revoked"
			}
			lastUsed := "-"
			if t.LastUsedAt != nil {
				lastUsed = t.LastUsedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.UserID, t.Name, status, lastUsed)
		}
		return w.Flush()
	},
}

var tokenRevokeCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "吊销一个令牌",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("无效的令牌 ID: %q", args[0])
		}

		ctx := context.Background()
		store, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("打开存储失败: %w", err)
		}
		defer store.Close()

		if err := store.RevokeToken(ctx, id); err != nil {
			return fmt.Errorf("吊销失败: %w", err)
		}
		fmt.Printf("Token %d revoked.\n", id)
		return nil
	},
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenCreateName, "name", "", "令牌备注名")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenCreateCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenRevokeCmd)
}
