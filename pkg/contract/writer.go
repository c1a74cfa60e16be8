package contract

import (
	"context"
	"io"
)

// ArtifactID: 与 FileID 等价的结果工件标识（语义别名）。
type ArtifactID = FileID

// Writer: 结果汇（文件系统/标准输出等），接收破解得到的明文。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 按字节透传，不读取/修改明文内容；
//  3. ctx 取消/超时需尽快返回；
//  4. 错误直接上抛（不做重试/回退），由 pipeline 记录为“写出失败”而非“未破解”。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
