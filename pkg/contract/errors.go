package contract

import "errors"

// 最小错误分类（用于日志分类与退出码判定）。
var (
	// ErrInvalidInput: 参数/配置/密钥非法（例如密钥含字母表外字符）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDictionary: 词表无法加载或为空；语言校验器无法构造。
	ErrDictionary = errors.New("dictionary unavailable")
	// ErrNotFound: 所有候选密钥长度均未得到可接受的明文。
	// 核心以 Result.Found=false 表达该结果；此哨兵仅供上层汇总/退出码使用。
	ErrNotFound = errors.New("plaintext not found")
)
