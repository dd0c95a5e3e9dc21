package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/wwwzy/LifeAgent/internal/storage"
)

// storageCmd represents the storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "管理存储和数据库",
	Long:  `提供查看数据库概况和清理审计记录的命令。`,
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "显示数据库统计概况",
	Run:   runInfo,
}

// pruneAuditCmd represents the prune-audit command
var pruneAuditCmd = &cobra.Command{
	Use:   "prune-audit",
	Short: "清理审计记录",
	Long:  `根据用户指定的保留条数或天数，清理旧的审计记录。`,
	Run:   runPruneAudit,
}

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "查看工具调用审计记录",
	Long:  `按用户、链路 ID、工具名或状态过滤，展示最近的审计记录。`,
	Run:   runAudit,
}

var (
	keepAuditCount int
	keepAuditDays  int

	auditUser   string
	auditTrace  string
	auditAction string
	auditStatus string
	auditLimit  int
)

func init() {
	pruneAuditCmd.Flags().IntVar(&keepAuditCount, "keep", 0, "保留最近的 N 条记录")
	pruneAuditCmd.Flags().IntVar(&keepAuditDays, "days", 0, "保留最近 N 天的记录")

	auditCmd.Flags().StringVar(&auditUser, "user", "", "按用户 ID 过滤")
	auditCmd.Flags().StringVar(&auditTrace, "trace", "", "按链路 ID 过滤")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "按工具名过滤")
	auditCmd.Flags().StringVar(&auditStatus, "status", "", "按状态过滤 (running/success/failed)")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 50, "最多显示 N 条")

	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(infoCmd)
	storageCmd.AddCommand(auditCmd)
	storageCmd.AddCommand(pruneAuditCmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.QueryAuditRecords(ctx, storage.AuditQuery{
		UserID:  auditUser,
		TraceID: auditTrace,
		Action:  auditAction,
		Status:  auditStatus,
		Limit:   auditLimit,
		Desc:    true,
	})
	if err != nil {
		fmt.Printf("Error querying audit records: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No audit records found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Time\tTrace\tUser\tAction\tStatus\tError")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.TraceID, r.UserID, r.Action, r.Status, r.ErrorMessage)
	}
	w.Flush()
}

func runPruneAudit(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if keepAuditCount <= 0 && keepAuditDays <= 0 {
		fmt.Println("Error: must specify either --keep or --days")
		cmd.Usage()
		os.Exit(1)
	}

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	fmt.Println("Opening database...")
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	var deletedCount int64

	if keepAuditCount > 0 {
		fmt.Printf("Pruning audit records, keeping latest %d records...\n", keepAuditCount)
		count, err := store.DeleteAuditRecordsKeepLatest(ctx, keepAuditCount)
		if err != nil {
			fmt.Printf("Error pruning by count: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	if keepAuditDays > 0 {
		before := time.Now().UTC().AddDate(0, 0, -keepAuditDays)
		fmt.Printf("Pruning audit records older than %d days (before %s)...\n", keepAuditDays, before.Format(time.RFC3339))
		count, err := store.DeleteAuditRecordsBefore(ctx, before)
		if err != nil {
			fmt.Printf("Error pruning by days: %v\n", err)
			os.Exit(1)
		}
		deletedCount += count
	}

	fmt.Printf("Prune completed. Deleted %d records.\n", deletedCount)

	if count, err := store.CountAuditRecords(ctx); err == nil {
		fmt.Printf("Remaining Audit Records: %d\n", count)
	}
}

func runInfo(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if cfg == nil {
		fmt.Println("Config not loaded")
		os.Exit(1)
	}

	// 数据库文件信息
	dbPath := cfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		if absPath, err := filepath.Abs(dbPath); err == nil {
			dbPath = absPath
		}
	}

	var dbSizeStr string
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			dbSizeStr = "Not Found (Will be created on first run)"
		} else {
			dbSizeStr = fmt.Sprintf("Error: %v", err)
		}
	} else {
		sizeMB := float64(info.Size()) / 1024 / 1024
		dbSizeStr = fmt.Sprintf("%.2f MB (%s)", sizeMB, dbPath)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		fmt.Printf("Database File: %s\n", dbSizeStr)
		fmt.Printf("Error opening database: %v\n", err)
		return
	}
	defer store.Close()

	counts, err := store.EntityCounts(ctx)
	if err != nil {
		fmt.Printf("Error counting tables: %v\n", err)
		return
	}

	fmt.Printf("Database File: %s\n\n", dbSizeStr)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Table\tCount")
	fmt.Fprintln(w, "-----\t-----")
	for _, tc := range counts {
		fmt.Fprintf(w, "%s\t%d\n", tc.Table, tc.Count)
	}
	w.Flush()
}
