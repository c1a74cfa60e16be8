package inline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"vigcrack/pkg/contract"
)

// Options 为 inline Reader 的配置。
type Options struct {
	// Name: 产出的 FileID；多段文本时追加 "-1"、"-2"…。默认 "text"。
	Name string `json:"name"`
}

// Inline 将每个 root 视为一段密文本身（对应 --text）。
type Inline struct {
	name string
}

// New 创建 inline Reader。
func New(opts *Options) *Inline {
	name := "text"
	if opts != nil && strings.TrimSpace(opts.Name) != "" {
		name = strings.TrimSpace(opts.Name)
	}
	return &Inline{name: name}
}

var _ contract.Reader = (*Inline)(nil)

// Iterate 按顺序产出每段文本；roots 为空返回 ErrInvalidInput。
func (r *Inline) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if len(roots) == 0 {
		return fmt.Errorf("%w: no inline text", contract.ErrInvalidInput)
	}
	for i, text := range roots {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := r.name
		if len(roots) > 1 {
			id = fmt.Sprintf("%s-%d", r.name, i+1)
		}
		if err := yield(contract.FileID(id), io.NopCloser(strings.NewReader(text))); err != nil {
			return err
		}
	}
	return nil
}
