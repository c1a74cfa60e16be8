package contract

// FileID: 逻辑输入ID（通常为路径，需规范化，跨平台一致；STDIN 为 "stdin"）。
type FileID string
