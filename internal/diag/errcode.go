package diag

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"vigcrack/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeCancel     Code = "cancel"
	CodeInvariant  Code = "invariant"
	CodeDictionary Code = "dictionary"
	CodeIO         Code = "io"
	CodeNotFound   Code = "not_found"
)

// Classify 将错误归为最小分类。
// 说明：仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrDictionary) {
		return CodeDictionary
	}
	if errors.Is(err, contract.ErrNotFound) {
		return CodeNotFound
	}
	// 不变量
	if errors.Is(err, contract.ErrInvariantViolation) ||
		errors.Is(err, contract.ErrInvalidInput) ||
		errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	// I/O
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	var lerr *os.LinkError
	if errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}

// NowUTC 返回 RFC3339 UTC 时间字符串（用于结构化日志字段 ts）。
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
