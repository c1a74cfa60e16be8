package stdout

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"vigcrack/pkg/contract"
)

// Options 为 stdout Writer 的配置。
type Options struct {
	// Header: 为 true 时在明文前输出一行 "== <id> =="，便于区分多个输入。
	Header bool `json:"header"`
}

// Stdout 将明文写到标准输出，并保证以换行结束。
type Stdout struct {
	mu     sync.Mutex
	out    io.Writer
	header bool
}

// New 创建写到 os.Stdout 的 Writer。
func New(opts *Options) *Stdout { return NewWith(os.Stdout, opts) }

// NewWith 创建写到 out 的 Writer。
func NewWith(out io.Writer, opts *Options) *Stdout {
	s := &Stdout{out: out}
	if opts != nil {
		s.header = opts.Header
	}
	return s
}

var _ contract.Writer = (*Stdout)(nil)

// Write 整段输出；多次调用之间不交错。
func (s *Stdout) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bw := bufio.NewWriter(s.out)
	if s.header {
		if _, err := fmt.Fprintf(bw, "== %s ==\n", id); err != nil {
			return err
		}
	}
	t := &tailWriter{w: bw}
	if _, err := io.Copy(t, r); err != nil {
		return err
	}
	if t.last != '\n' {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// tailWriter 记录最后写出的字节。
type tailWriter struct {
	w    io.Writer
	last byte
}

func (t *tailWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if n > 0 {
		t.last = p[n-1]
	}
	return n, err
}
