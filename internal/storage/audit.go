package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuditQuery 用于查询审计记录的过滤条件。
// 所有字段都是可选过滤条件，零值表示不参与过滤。
type AuditQuery struct {
	// TraceID 精确匹配一次助手请求的链路 ID。
	TraceID string
	// UserID 精确匹配发起用户。
	UserID string
	// Action 精确匹配工具名。
	Action string
	// Status 精确匹配执行状态（running/success/failed）。
	Status string
	// From/To 过滤 CreatedAt 区间：[From, To]（两端包含）。
	From *time.Time
	To   *time.Time
	// Limit 限制返回条数；<=0 使用默认值。
	Limit int
	// Desc 按 CreatedAt 倒序返回（优先返回最新记录）。
	Desc bool
}

func (s *Storage) InsertAuditRecord(ctx context.Context, rec *AuditRecord) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	if rec == nil {
		return errors.New("audit record is nil")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// AuditUpdate 描述对审计记录的部分更新；nil 字段不参与更新。
type AuditUpdate struct {
	Status       *string
	ResultJSON   *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

func (s *Storage) UpdateAuditRecord(ctx context.Context, id uint64, upd AuditUpdate) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	values := map[string]any{}
	if upd.Status != nil {
		values["status"] = *upd.Status
	}
	if upd.ResultJSON != nil {
		values["result_json"] = *upd.ResultJSON
	}
	if upd.ErrorMessage != nil {
		values["error_message"] = *upd.ErrorMessage
	}
	if upd.FinishedAt != nil {
		values["finished_at"] = *upd.FinishedAt
	}
	if len(values) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&AuditRecord{}).
		Where("id = ?", id).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update audit record: %w", res.Error)
	}
	return nil
}

func (s *Storage) QueryAuditRecords(ctx context.Context, q AuditQuery) ([]AuditRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}

	limit := normalizeLimit(q.Limit)
	db := s.db.WithContext(ctx).Model(&AuditRecord{})
	if q.TraceID != "" {
		db = db.Where("trace_id = ?", q.TraceID)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.From != nil {
		db = db.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("created_at <= ?", *q.To)
	}
	if q.Desc {
		db = db.Order("created_at DESC")
	} else {
		db = db.Order("created_at ASC")
	}
	db = db.Limit(limit)

	var out []AuditRecord
	if err := db.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	return out, nil
}

func (s *Storage) CountAuditRecords(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&AuditRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

func (s *Storage) DeleteAuditRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", before).Delete(&AuditRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete audit records: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteAuditRecordsKeepLatest 只保留最近 keep 条记录，删除其余。
func (s *Storage) DeleteAuditRecordsKeepLatest(ctx context.Context, keep int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("storage not initialized")
	}
	if keep <= 0 {
		return 0, errors.New("keep must be positive")
	}

	var cutoff []uint64
	err := s.db.WithContext(ctx).Model(&AuditRecord{}).
		Select("id").
		Order("id DESC").
		Limit(1).
		Offset(keep - 1).
		Find(&cutoff).Error
	if err != nil {
		return 0, fmt.Errorf("select audit cutoff: %w", err)
	}
	if len(cutoff) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Where("id < ?", cutoff[0]).Delete(&AuditRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete audit records: %w", res.Error)
	}
	return res.RowsAffected, nil
}
