package contract

import (
	"context"
	"io"
)

// Reader: 密文来源抽象（文件/目录/STDIN/命令行文本）。
// 约束：
// 1) 按输入维度回调，每个输入一个 FileID；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解码/业务解析，仅提供字节流；
// 4) 不在内部起并发。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
