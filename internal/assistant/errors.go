package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// 工具执行的错误分类。执行器据此生成步骤里的错误文案，
// HTTP 层据此选择状态码。
var (
	// ErrValidation 参数缺失或非法。
	ErrValidation = errors.New("invalid tool arguments")
	// ErrNotFoundOrForbidden 目标记录不存在，或不属于当前用户。
	// 两种情况对外不做区分，避免泄露他人数据是否存在。
	ErrNotFoundOrForbidden = errors.New("record not found or not owned")
	// ErrAccessDenied context 中没有用户身份。
	ErrAccessDenied = errors.New("access denied")
	// ErrNoBackend 没有配置任何模型后端。
	ErrNoBackend = errors.New("no model backend configured")
	// ErrNoUsableOutput 整条流水线没有产出任何可用的步骤。
	ErrNoUsableOutput = errors.New("model produced no usable output")
)

// BackendError 模型后端调用失败。Local 标记失败的是本地后端，
// Unreachable 标记连接层面的失败（拒绝连接、超时），供 HTTP 层
// 区分 503 与 502。
type BackendError struct {
	Op          string
	Local       bool
	Unreachable bool
	Err         error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func newBackendError(op string, local bool, err error) *BackendError {
	return &BackendError{Op: op, Local: local, Unreachable: isUnreachable(err), Err: err}
}

// isUnreachable 判断是否为连接层面的失败而非后端返回的错误响应。
func isUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
