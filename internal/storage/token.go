package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	tokenLength = 32
	tokenPrefix = "la_"
)

// GenerateToken 生成一个新的明文令牌及其存储哈希。
// 明文只返回这一次，数据库永远不落明文。
func GenerateToken() (plaintext string, hash string, err error) {
	randomBytes := make([]byte, tokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("generate random bytes: %w", err)
	}
	plaintext = tokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return plaintext, HashToken(plaintext), nil
}

// HashToken 计算明文令牌的 SHA-256 十六进制哈希。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidTokenFormat 做一次廉价的格式预检，避免无谓的查库。
func ValidTokenFormat(token string) bool {
	if !strings.HasPrefix(token, tokenPrefix) {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, tokenPrefix))
	if err != nil {
		return false
	}
	return len(decoded) == tokenLength
}

// IssueToken 为 userID 签发一个新令牌，返回明文。
func (s *Storage) IssueToken(ctx context.Context, userID, name string) (string, *APIToken, error) {
	if s == nil || s.db == nil {
		return "", nil, errors.New("storage not initialized")
	}
	if userID == "" {
		return "", nil, errors.New("user id is required")
	}

	plaintext, hash, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	rec := &APIToken{
		UserID:    userID,
		Name:      name,
		TokenHash: hash,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", nil, fmt.Errorf("insert api token: %w", err)
	}
	return plaintext, rec, nil
}

// ResolveToken 根据明文令牌解析出 UserID。
// 未知、格式非法或已吊销的令牌统一返回 ErrNotFound。
func (s *Storage) ResolveToken(ctx context.Context, token string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("storage not initialized")
	}
	if !ValidTokenFormat(token) {
		return "", ErrNotFound
	}

	var rec APIToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL", HashToken(token)).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve token: %w", err)
	}

	// LastUsedAt 是尽力而为的统计信息，更新失败不影响鉴权结果。
	now := time.Now().UTC()
	_ = s.db.WithContext(ctx).Model(&APIToken{}).
		Where("id = ?", rec.ID).
		Update("last_used_at", now).Error

	return rec.UserID, nil
}

func (s *Storage) ListTokens(ctx context.Context) ([]APIToken, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("storage not initialized")
	}
	var out []APIToken
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	return out, nil
}

// RevokeToken 吊销指定 ID 的令牌；重复吊销不是错误。
func (s *Storage) RevokeToken(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil {
		return errors.New("storage not initialized")
	}
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&APIToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", now)
	if res.Error != nil {
		return fmt.Errorf("revoke token: %w", res.Error)
	}
	return nil
}
