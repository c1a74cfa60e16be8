package contract

import (
	"path"
	"strings"
)

// NormalizeFileID 规范化路径，统一为跨平台稳定的 FileID。
// 规则：
// - 使用正斜杠分隔符
// - 清理多余分隔符与路径片段（.、..）
// - 保留相对/绝对语义，不做隐式绝对化
func NormalizeFileID(p string) FileID {
	s := strings.ReplaceAll(p, "\\", "/")
	return FileID(path.Clean(s))
}

// ArtifactFor 由输入 FileID 推导明文工件标识：去掉最后一级扩展名后追加 suffix。
// 例如 ("msgs/a.txt", ".decrypted.txt") → "msgs/a.decrypted.txt"；
// 无扩展名或以点开头的文件名（".env"）整体保留。
func ArtifactFor(id FileID, suffix string) ArtifactID {
	s := string(id)
	base := path.Base(s)
	if ext := path.Ext(base); ext != "" && ext != base {
		s = strings.TrimSuffix(s, ext)
	}
	return ArtifactID(s + suffix)
}
